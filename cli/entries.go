package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/ije/gox/term"
)

const entriesHelpMessage = `Print the build entries inferred from package.json

Usage: packem entries [dir] [options]

Options:
  --config    Path of the config file
  --json      Print the entries as JSON
  --debug     Print debug logs
  --help, -h  Show help message
`

// Entries prints the inferred build entries.
func Entries() {
	flags := defineCommonFlags()
	asJSON := flag.Bool("json", false, "print the entries as JSON")
	dir, help := parseCommandFlags()
	if help {
		fmt.Print(entriesHelpMessage)
		return
	}

	p, err := loadProject(dir, flags)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer p.log.FlushBuffer()

	if *asJSON {
		data, err := json.MarshalIndent(p.result.Entries, "", "  ")
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		for _, e := range p.result.Entries {
			var formats []string
			if e.CJS {
				formats = append(formats, "cjs")
			}
			if e.ESM {
				formats = append(formats, "esm")
			}
			fmt.Println(term.Green(e.Name), term.Dim(e.Input))
			fmt.Printf("  formats: %v, runtime: %s, declaration: %s\n", formats, e.Runtime, e.Declaration)
			if len(e.ExportKey) > 0 {
				fmt.Printf("  exports: %v\n", e.ExportKeys())
			}
			if e.Environment != "" {
				fmt.Printf("  environment: %s\n", e.Environment)
			}
		}
	}
	printWarnings(p.result.Warnings)
}
