// Command disasm is the CLI entry point for the haevn disassembler.
package main

import "os"

func main() {
	os.Exit(Execute())
}
