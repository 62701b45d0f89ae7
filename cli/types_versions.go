package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/visulima/packem-sub001/internal/node10"
)

const typesVersionsHelpMessage = `Generate the "typesVersions" field for the node10 module resolution

Usage: packem types-versions [dir] [options]

Options:
  --config    Path of the config file
  --write     Write the field into package.json instead of printing it
  --yes, -y   Don't ask before writing package.json
  --range     TypeScript version range of the field, defaults to "*"
  --debug     Print debug logs
  --help, -h  Show help message
`

// TypesVersions prints or writes the `typesVersions` field.
func TypesVersions() {
	flags := defineCommonFlags()
	write := flag.Bool("write", false, "write the field into package.json")
	yes := flag.Bool("yes", false, "don't ask before writing package.json")
	y := flag.Bool("y", false, "don't ask before writing package.json")
	versionRange := flag.String("range", "", "typescript version range")
	dir, help := parseCommandFlags()
	if help {
		fmt.Print(typesVersionsHelpMessage)
		return
	}

	p, err := loadProject(dir, flags)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer p.log.FlushBuffer()
	printWarnings(p.result.Warnings)

	c := p.options.Node10Compatibility
	mode := node10.Mode(c.Writer)
	if *write {
		mode = node10.ModeFile
	}
	if *versionRange != "" {
		c.TypeScriptVersion = *versionRange
	}
	if mode == node10.ModeFile && !*yes && !*y && !termConfirm("Write the typesVersions field into package.json?") {
		mode = node10.ModeConsole
	}

	err = node10.Emit(p.log, p.result.Entries, p.options.OutDir, p.options.RootDir, mode, c.TypeScriptVersion)
	if err != nil {
		printError(err)
		p.log.FlushBuffer()
		os.Exit(1)
	}
}
