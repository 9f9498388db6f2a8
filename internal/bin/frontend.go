// Package bin implements the binary-format front end: format detection,
// section enumeration, and arch/mode/entry-point extraction (spec §4.1).
// ELF is fully supported via the standard library's debug/elf; PE and
// Mach-O are stubs sufficient to satisfy "must not crash" (spec §6).
package bin

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"github.com/decomp/exp/bin"
	"github.com/jchristman/haevn/model"
)

// Frontend is the capability set spec §4.1 requires of a binary front end.
type Frontend interface {
	Format() model.Format
	Arch() model.Arch
	Mode() model.Mode
	MD5() string
	Size() uint64
	EntryPoint() bin.Address
	Sections() []model.Section
	ExecutableSections() []model.Section
	NonExecutableSections() []model.Section
	// Close releases the underlying file handle. Safe to call more than
	// once.
	Close() error
}

// Open sniffs path and returns the appropriate Frontend. An unrecognized
// format yields an unknownFrontend whose Sections() is empty and
// whose Arch()/Mode() are the zero value, per spec §4.1's failure mode —
// it is the caller's job to treat that as UnknownFormat and abort.
func Open(path string) (Frontend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := uint64(info.Size())

	sum, err := md5Sum(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil && err != io.EOF {
		f.Close()
		return nil, err
	}

	switch {
	case isELFMagic(magic):
		return newELFFrontend(f, path, size, sum)
	case isPEMagic(magic):
		return newPEFrontend(f, path, size, sum)
	case isMachOMagic(magic):
		return newMachOFrontend(f, path, size, sum)
	default:
		f.Close()
		return &unknownFrontend{size: size, md5: sum}, nil
	}
}

func md5Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isELFMagic(b []byte) bool {
	return len(b) >= 4 && b[0] == 0x7f && b[1] == 'E' && b[2] == 'L' && b[3] == 'F'
}

func isPEMagic(b []byte) bool {
	return len(b) >= 2 && b[0] == 'M' && b[1] == 'Z'
}

func isMachOMagic(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	magics := [][4]byte{
		{0xfe, 0xed, 0xfa, 0xce}, {0xce, 0xfa, 0xed, 0xfe},
		{0xfe, 0xed, 0xfa, 0xcf}, {0xcf, 0xfa, 0xed, 0xfe},
		{0xca, 0xfe, 0xba, 0xbe}, {0xbe, 0xba, 0xfe, 0xca},
	}
	for _, m := range magics {
		if b[0] == m[0] && b[1] == m[1] && b[2] == m[2] && b[3] == m[3] {
			return true
		}
	}
	return false
}

// unknownFrontend is returned when no format matches; it satisfies
// Frontend with a uniformly empty/zero view, per spec §4.1.
type unknownFrontend struct {
	size uint64
	md5  string
}

func (u *unknownFrontend) Format() model.Format               { return "" }
func (u *unknownFrontend) Arch() model.Arch                   { return "" }
func (u *unknownFrontend) Mode() model.Mode                   { return "" }
func (u *unknownFrontend) MD5() string                        { return u.md5 }
func (u *unknownFrontend) Size() uint64                       { return u.size }
func (u *unknownFrontend) EntryPoint() bin.Address            { return 0 }
func (u *unknownFrontend) Sections() []model.Section          { return nil }
func (u *unknownFrontend) ExecutableSections() []model.Section { return nil }
func (u *unknownFrontend) NonExecutableSections() []model.Section {
	return nil
}
func (u *unknownFrontend) Close() error { return nil }
