package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ije/gox/log"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/entry"
	"github.com/visulima/packem-sub001/internal/npm"
	"github.com/visulima/packem-sub001/internal/sources"
)

// project is a package loaded for a command.
type project struct {
	options *config.Options
	pkg     *npm.PackageJSON
	result  *entry.Result
	log     *log.Logger
}

// commonFlags are the flags shared by all commands.
type commonFlags struct {
	config *string
	debug  *bool
}

func defineCommonFlags() commonFlags {
	return commonFlags{
		config: flag.String("config", "", "path of the config file, defaults to packem.config.json"),
		debug:  flag.Bool("debug", false, "print debug logs"),
	}
}

// parseCommandFlags parses the flags following the command name, it returns
// the first positional argument.
func parseCommandFlags() (arg0 string, help bool) {
	h := flag.Bool("h", false, "show help message")
	helpFlag := flag.Bool("help", false, "show help message")
	flag.CommandLine.Parse(os.Args[2:])
	return flag.Arg(0), *h || *helpFlag
}

// loadProject loads the options, the package.json and the source files of the
// package in dir, then infers its build entries.
func loadProject(dir string, flags commonFlags) (p *project, err error) {
	if dir == "" {
		dir = "."
	}
	rootDir, err := filepath.Abs(dir)
	if err != nil {
		return
	}

	var options *config.Options
	if *flags.config != "" {
		options, err = config.LoadOptions(*flags.config)
	} else {
		options, err = config.LoadOptionsFromDir(rootDir)
	}
	if err != nil {
		return
	}

	logger, err := newLogger(options, *flags.debug)
	if err != nil {
		return
	}

	pkg, err := npm.ReadPackageJSON(filepath.Join(options.RootDir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}
	pkg = npm.OverlayPublishConfig(pkg, options.Declaration == config.DeclarationUnset)

	files, err := sources.List(options.RootDir, options.SourceDir, options.OutDir, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	logger.Debugf("%d source files found in %s", len(files), options.SourceDir)

	result, err := entry.Infer(pkg, files, entry.NewContext(options, logger))
	if err != nil {
		return
	}
	return &project{options: options, pkg: pkg, result: result, log: logger}, nil
}

func newLogger(options *config.Options, debug bool) (logger *log.Logger, err error) {
	if options.LogFile != "" {
		logger, err = log.New(fmt.Sprintf("file:%s?buffer=32k", options.LogFile))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	} else {
		logger = &log.Logger{}
	}
	if debug {
		logger.SetLevelByName("debug")
	} else {
		logger.SetLevelByName(options.LogLevel)
	}
	return
}
