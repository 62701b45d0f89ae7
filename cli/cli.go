package cli

import (
	"fmt"
	"os"
)

const VERSION = "0.1.0"

const helpMessage = "\033[30mpackem - Infer the build entries of a package from its package.json.\033[0m" + `

Usage: packem [command] [options]

Commands:
  entries [dir]         Print the build entries inferred from package.json
  build [dir]           Build the inferred entries with esbuild
  types-versions [dir]  Generate the "typesVersions" field for node10 resolution

Options:
  --version, -v         Show the version
  --help, -h            Display this help message
`

// Run runs the command given in the process arguments.
func Run() {
	if len(os.Args) < 2 {
		fmt.Print(helpMessage)
		return
	}
	switch command := os.Args[1]; command {
	case "entries":
		Entries()
	case "build":
		Build()
	case "types-versions":
		TypesVersions()
	case "version":
		fmt.Println("packem " + VERSION)
	default:
		for _, arg := range os.Args[1:] {
			if arg == "--version" {
				fmt.Println("packem " + VERSION)
				return
			}
			if arg == "-v" {
				fmt.Println(VERSION)
				return
			}
		}
		fmt.Print(helpMessage)
	}
}
