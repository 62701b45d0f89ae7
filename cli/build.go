package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ije/gox/term"
	"github.com/visulima/packem-sub001/internal/bundle"
	"github.com/visulima/packem-sub001/internal/node10"
	"github.com/visulima/packem-sub001/internal/suggest"
)

const buildHelpMessage = `Build the entries inferred from package.json with esbuild

Usage: packem build [dir] [options]

Options:
  --config    Path of the config file
  --minify    Minify the outputs
  --sourcemap Generate source maps
  --debug     Print debug logs
  --help, -h  Show help message
`

// Build bundles the inferred entries.
func Build() {
	flags := defineCommonFlags()
	minify := flag.Bool("minify", false, "minify the outputs")
	sourcemap := flag.Bool("sourcemap", false, "generate source maps")
	dir, help := parseCommandFlags()
	if help {
		fmt.Print(buildHelpMessage)
		return
	}

	p, err := loadProject(dir, flags)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer p.log.FlushBuffer()

	if *minify {
		p.options.Minify = true
	}
	if *sourcemap {
		p.options.Sourcemap = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, err := bundle.Build(ctx, p.result.Entries, p.pkg, p.options, p.log)
	if err != nil {
		printError(err)
		p.log.FlushBuffer()
		os.Exit(1)
	}

	warnings := make([]string, len(p.result.Warnings))
	for i, warning := range p.result.Warnings {
		warnings[i] = suggest.Annotate(warning, warningTarget(warning), files)
	}
	printWarnings(warnings)

	if c := p.options.Node10Compatibility; c.Enabled {
		err = node10.Emit(p.log, p.result.Entries, p.options.OutDir, p.options.RootDir, node10.Mode(c.Writer), c.TypeScriptVersion)
		if err != nil {
			printError(err)
			p.log.FlushBuffer()
			os.Exit(1)
		}
	}
	fmt.Println(term.Green("✔"), fmt.Sprintf("%d entries built", len(p.result.Entries)))
}
