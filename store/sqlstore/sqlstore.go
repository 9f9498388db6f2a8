// Package sqlstore is a store.Store backed by database/sql over
// modernc.org/sqlite, the pure-Go SQLite driver — chosen over a cgo
// MongoDB-equivalent so the storage layer stays cgo-free while still being
// a real, persisted backend rather than another in-memory fake. The five
// logical collections of spec §6 become five tables.
package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	decompbin "github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
	"github.com/jchristman/haevn/store"

	_ "modernc.org/sqlite"
)

// Store is a store.Store implementation persisted to a SQLite database at
// a file path (or ":memory:").
type Store struct {
	db          *sql.DB
	project     string
	disassembly string
}

// Open creates/migrates the schema at path and returns a Store. path may be
// ":memory:" for a transient, still-on-disk-format SQLite database, useful
// in tests that want to exercise the real driver without a file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DSN builds the connection string for a project's SQLite file from
// spec.md §6's Database.host/Database.port "store endpoint" keys. Host
// names the directory holding the project's file — the nearest embedded
// equivalent of a network store endpoint, letting a project's database
// live on a shared mount rather than always the working directory.
// Port has no meaning for a single-file embedded database, so it's
// repurposed as SQLite's busy_timeout in milliseconds: the connection
// tuning knob that actually matters once this tool's worker pool has
// multiple goroutines writing to the same file concurrently.
func DSN(host string, port int, fileName string) string {
	dir := host
	if dir == "" || dir == "localhost" {
		dir = "."
	}
	path := filepath.Join(dir, fileName)
	if port > 0 {
		path = fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, port)
	}
	return path
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS project_information (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS disassemblies (
			project TEXT NOT NULL,
			name TEXT NOT NULL,
			binary_file TEXT,
			format TEXT,
			arch TEXT,
			mode TEXT,
			md5 TEXT,
			file_size INTEGER,
			entry_point INTEGER,
			PRIMARY KEY (project, name)
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			project TEXT NOT NULL,
			disassembly TEXT NOT NULL,
			name TEXT NOT NULL,
			base_addr INTEGER,
			size INTEGER,
			data BLOB,
			attribs TEXT,
			PRIMARY KEY (project, disassembly, name)
		)`,
		`CREATE TABLE IF NOT EXISTS disassembler (
			project TEXT NOT NULL,
			disassembly TEXT NOT NULL,
			sec_name TEXT NOT NULL,
			r_addr INTEGER NOT NULL,
			abs_addr INTEGER,
			is_text INTEGER,
			raw BLOB,
			mnemonic TEXT,
			operands TEXT,
			disp TEXT,
			PRIMARY KEY (project, disassembly, sec_name, r_addr)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_disassembler_addr
			ON disassembler (project, disassembly, sec_name, abs_addr)`,
		`CREATE TABLE IF NOT EXISTS labels (
			project TEXT NOT NULL,
			disassembly TEXT NOT NULL,
			kind TEXT,
			name TEXT NOT NULL,
			payload TEXT,
			PRIMARY KEY (project, disassembly, name)
		)`,
		`CREATE TABLE IF NOT EXISTS xrefs (
			project TEXT NOT NULL,
			disassembly TEXT NOT NULL,
			base_addr INTEGER,
			base_sec TEXT,
			target TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) LoadProject(name string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO project_information (name) VALUES (?)`, name)
	if err != nil {
		return err
	}
	s.project = name
	return nil
}

func (s *Store) ProjectExists(name string) (bool, error) {
	var n string
	err := s.db.QueryRow(`SELECT name FROM project_information WHERE name = ?`, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) AddDisassembly(d model.Disassembly) (bool, error) {
	var existing string
	err := s.db.QueryRow(`SELECT name FROM disassemblies WHERE project = ? AND name = ?`, s.project, d.Name).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	_, err = s.db.Exec(`INSERT INTO disassemblies
		(project, name, binary_file, format, arch, mode, md5, file_size, entry_point)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.project, d.Name, d.BinaryFile, string(d.Format), string(d.Arch), string(d.Mode),
		d.MD5, int64(d.FileSize), int64(d.EntryPoint))
	if err != nil {
		return false, err
	}
	s.disassembly = d.Name
	return true, nil
}

func (s *Store) SetDisassembly(name string) error {
	s.disassembly = name
	return nil
}

func (s *Store) DeleteDisassembly(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmts := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM disassemblies WHERE project = ? AND name = ?`, []any{s.project, name}},
		{`DELETE FROM sections WHERE project = ? AND disassembly = ?`, []any{s.project, name}},
		{`DELETE FROM disassembler WHERE project = ? AND disassembly = ?`, []any{s.project, name}},
		{`DELETE FROM labels WHERE project = ? AND disassembly = ?`, []any{s.project, name}},
		{`DELETE FROM xrefs WHERE project = ? AND disassembly = ?`, []any{s.project, name}},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.query, st.args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if s.disassembly == name {
		s.disassembly = ""
	}
	return nil
}

func (s *Store) AddSection(sec model.Section) error {
	attrs, err := json.Marshal(sec.Attribs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO sections
		(project, disassembly, name, base_addr, size, data, attribs)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.project, s.disassembly, sec.Name, int64(sec.BaseAddr), int64(sec.Size), sec.Data, string(attrs))
	return err
}

func (s *Store) UpsertSection(sec model.Section) error { return s.AddSection(sec) }

type operandsJSON struct {
	Operands []model.Operand `json:"operands,omitempty"`
	Disp     string          `json:"disp,omitempty"`
}

func (s *Store) resolveXref(tx *sql.Tx, inst *model.Instruction) error {
	for i := range inst.Operands {
		ref := inst.Operands[i].Xref
		if ref == nil {
			continue
		}
		loc := model.NewLocationLabel(ref.RAddr, ref.SecName)
		payload, err := json.Marshal(loc.Loc)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT OR REPLACE INTO labels (project, disassembly, kind, name, payload)
			VALUES (?, ?, ?, ?, ?)`, s.project, s.disassembly, string(model.KindLocation), ref.Name, string(payload))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertInstructionTx(tx *sql.Tx, secName string, inst model.Instruction) error {
	if err := s.resolveXref(tx, &inst); err != nil {
		return err
	}
	payload, err := json.Marshal(operandsJSON{Operands: inst.Operands, Disp: inst.Disp})
	if err != nil {
		return err
	}
	isText := 0
	if inst.IsText {
		isText = 1
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO disassembler
		(project, disassembly, sec_name, r_addr, abs_addr, is_text, raw, mnemonic, operands, disp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.project, s.disassembly, secName, int64(inst.RAddr), int64(inst.AbsAddr), isText,
		inst.Raw, inst.Mnemonic, string(payload), inst.Disp)
	return err
}

func (s *Store) BatchAddInstructions(secName string, insts []model.Instruction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if err := s.insertInstructionTx(tx, secName, inst); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) AddInstruction(secName string, inst model.Instruction, update bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := s.insertInstructionTx(tx, secName, inst); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) BatchDeleteInstsInAddrRanges(secName string, ranges []store.AddrRange) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, r := range ranges {
		_, err := tx.Exec(`DELETE FROM disassembler
			WHERE project = ? AND disassembly = ? AND sec_name = ? AND r_addr >= ? AND r_addr < ?`,
			s.project, s.disassembly, secName, int64(r.Start), int64(r.End))
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) AddLabel(l model.Label) error {
	var existing string
	err := s.db.QueryRow(`SELECT name FROM labels WHERE project = ? AND disassembly = ? AND name = ?`,
		s.project, s.disassembly, l.Name).Scan(&existing)
	if err == nil {
		return fmt.Errorf("label %q already exists", l.Name)
	}
	if err != sql.ErrNoRows {
		return err
	}
	return s.UpsertLabel(l)
}

func (s *Store) UpsertLabel(l model.Label) error {
	payload, err := labelPayload(l)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO labels (project, disassembly, kind, name, payload)
		VALUES (?, ?, ?, ?, ?)`, s.project, s.disassembly, string(l.Kind), l.Name, string(payload))
	return err
}

func labelPayload(l model.Label) ([]byte, error) {
	switch l.Kind {
	case model.KindFunction:
		return json.Marshal(l.Func)
	case model.KindString:
		return json.Marshal(l.Str)
	case model.KindSection:
		return json.Marshal(l.Sec)
	case model.KindLocation:
		return json.Marshal(l.Loc)
	default:
		return nil, fmt.Errorf("sqlstore: unknown label kind %q", l.Kind)
	}
}

func (s *Store) AddXref(x model.Xref) error {
	_, err := s.db.Exec(`INSERT INTO xrefs (project, disassembly, base_addr, base_sec, target)
		VALUES (?, ?, ?, ?, ?)`, s.project, s.disassembly, int64(x.BaseAddr), x.BaseSecName, x.Target)
	return err
}

func (s *Store) GetSections(executableOnly bool) ([]model.Section, error) {
	rows, err := s.db.Query(`SELECT name, base_addr, size, data, attribs FROM sections
		WHERE project = ? AND disassembly = ? ORDER BY base_addr`, s.project, s.disassembly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Section
	for rows.Next() {
		var name, attrsJSON string
		var base, size int64
		var data []byte
		if err := rows.Scan(&name, &base, &size, &data, &attrsJSON); err != nil {
			return nil, err
		}
		var attrs model.Attributes
		if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
			return nil, err
		}
		sec := model.NewSection(name, data, attrs, decompbin.Address(base))
		if !executableOnly || sec.IsExecutable() {
			out = append(out, sec)
		}
	}
	return out, rows.Err()
}

func (s *Store) GetSection(name string) (model.Section, bool, error) {
	row := s.db.QueryRow(`SELECT name, base_addr, size, data, attribs FROM sections
		WHERE project = ? AND disassembly = ? AND name = ?`, s.project, s.disassembly, name)
	var n, attrsJSON string
	var base, size int64
	var data []byte
	if err := row.Scan(&n, &base, &size, &data, &attrsJSON); err != nil {
		if err == sql.ErrNoRows {
			return model.Section{}, false, nil
		}
		return model.Section{}, false, err
	}
	var attrs model.Attributes
	if err := json.Unmarshal([]byte(attrsJSON), &attrs); err != nil {
		return model.Section{}, false, err
	}
	return model.NewSection(n, data, attrs, decompbin.Address(base)), true, nil
}

func (s *Store) GetSectionContainingAddr(abs decompbin.Address) (model.Section, bool, error) {
	sections, err := s.GetSections(false)
	if err != nil {
		return model.Section{}, false, err
	}
	for _, sec := range sections {
		if sec.ContainsAddr(abs) {
			return sec, true, nil
		}
	}
	return model.Section{}, false, nil
}

func (s *Store) labelsOfKind(kind model.Kind) ([]model.Label, error) {
	rows, err := s.db.Query(`SELECT name, payload FROM labels
		WHERE project = ? AND disassembly = ? AND kind = ? ORDER BY name`,
		s.project, s.disassembly, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Label
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, err
		}
		l := model.Label{Name: name, Kind: kind}
		switch kind {
		case model.KindFunction:
			l.Func = &model.FunctionLabel{}
			err = json.Unmarshal([]byte(payload), l.Func)
		case model.KindString:
			l.Str = &model.StringLabel{}
			err = json.Unmarshal([]byte(payload), l.Str)
		case model.KindSection:
			l.Sec = &model.SectionLabel{}
			err = json.Unmarshal([]byte(payload), l.Sec)
		case model.KindLocation:
			l.Loc = &model.LocationLabel{}
			err = json.Unmarshal([]byte(payload), l.Loc)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetFunctions() ([]model.Label, error) { return s.labelsOfKind(model.KindFunction) }
func (s *Store) GetStrings() ([]model.Label, error)   { return s.labelsOfKind(model.KindString) }
func (s *Store) GetLocations() ([]model.Label, error) { return s.labelsOfKind(model.KindLocation) }

func (s *Store) GetInstructions(secName string) ([]model.Instruction, error) {
	rows, err := s.db.Query(`SELECT r_addr, abs_addr, is_text, raw, mnemonic, operands, disp
		FROM disassembler WHERE project = ? AND disassembly = ? AND sec_name = ?
		ORDER BY abs_addr ASC`, s.project, s.disassembly, secName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Instruction
	for rows.Next() {
		var rAddr, absAddr int64
		var isText int
		var raw []byte
		var mnemonic, operandsJSONStr, disp string
		if err := rows.Scan(&rAddr, &absAddr, &isText, &raw, &mnemonic, &operandsJSONStr, &disp); err != nil {
			return nil, err
		}
		var parsed operandsJSON
		if err := json.Unmarshal([]byte(operandsJSONStr), &parsed); err != nil {
			return nil, err
		}
		out = append(out, model.Instruction{
			RAddr:    uint64(rAddr),
			AbsAddr:  decompbin.Address(absAddr),
			SecName:  secName,
			IsText:   isText != 0,
			Raw:      raw,
			Mnemonic: mnemonic,
			Operands: parsed.Operands,
			Disp:     disp,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AbsAddr < out[j].AbsAddr })
	return out, rows.Err()
}

func (s *Store) GetInstructionsCount(secName string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM disassembler
		WHERE project = ? AND disassembly = ? AND sec_name = ?`, s.project, s.disassembly, secName).Scan(&n)
	return n, err
}

func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)
