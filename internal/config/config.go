package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// DefaultConfigFile is looked up in the project root when no config file is given.
const DefaultConfigFile = "packem.config.json"

// DeclarationMode controls the generation of declaration files.
type DeclarationMode int

const (
	// DeclarationUnset means no preference was given.
	DeclarationUnset DeclarationMode = iota
	DeclarationOff
	DeclarationOn
	// DeclarationCompatible emits `.d.ts` files next to `.d.cts`/`.d.mts`.
	DeclarationCompatible
)

func (m DeclarationMode) String() string {
	switch m {
	case DeclarationOff:
		return "false"
	case DeclarationOn:
		return "true"
	case DeclarationCompatible:
		return "compatible"
	}
	return "unset"
}

// MarshalJSON implements the json.Marshaler interface
func (m DeclarationMode) MarshalJSON() ([]byte, error) {
	switch m {
	case DeclarationOff, DeclarationOn:
		return []byte(m.String()), nil
	case DeclarationCompatible:
		return []byte(`"compatible"`), nil
	}
	return []byte("null"), nil
}

// ParseDeclarationMode parses `true`, `false` or `"compatible"`.
func ParseDeclarationMode(raw json.RawMessage) (DeclarationMode, error) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null":
		return DeclarationUnset, nil
	case "false":
		return DeclarationOff, nil
	case "true":
		return DeclarationOn, nil
	case `"compatible"`:
		return DeclarationCompatible, nil
	}
	return DeclarationUnset, fmt.Errorf("invalid declaration option %s, expected true, false or \"compatible\"", raw)
}

// Runtime is the runtime a build entry targets.
type Runtime string

const (
	RuntimeNode        Runtime = "node"
	RuntimeBrowser     Runtime = "browser"
	RuntimeEdgeLight   Runtime = "edge-light"
	RuntimeReactServer Runtime = "react-server"
	RuntimeReactNative Runtime = "react-native"
)

// IsValid returns true for the known runtimes.
func (r Runtime) IsValid() bool {
	switch r {
	case RuntimeNode, RuntimeBrowser, RuntimeEdgeLight, RuntimeReactServer, RuntimeReactNative:
		return true
	}
	return false
}

// Environment is the build environment of an entry, empty means no
// environment split was requested.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)

// Node10Options configures the `typesVersions` emitter.
type Node10Options struct {
	Enabled bool `json:"enabled"`
	// Writer is "console" or "file".
	Writer            string `json:"writer"`
	TypeScriptVersion string `json:"typeScriptVersion"`
}

// Options represents the build options of a package.
type Options struct {
	RootDir             string          `json:"rootDir"`
	SourceDir           string          `json:"sourceDir"`
	OutDir              string          `json:"outDir"`
	DeclarationRaw      json.RawMessage `json:"declaration"`
	Runtime             Runtime         `json:"runtime"`
	Environment         Environment     `json:"environment"`
	IgnoreExportKeys    []string        `json:"ignoreExportKeys"`
	Exclude             []string        `json:"exclude"`
	Target              string          `json:"target"`
	Minify              bool            `json:"minify"`
	Sourcemap           bool            `json:"sourcemap"`
	Node10Compatibility Node10Options   `json:"node10Compatibility"`
	LogLevel            string          `json:"logLevel"`
	LogFile             string          `json:"logFile"`
	Declaration         DeclarationMode `json:"-"`
}

// LoadOptions loads options from the given JSON (with comments) file. The
// root directory defaults to the directory of the file.
func LoadOptions(filename string) (*Options, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("fail to read config file: %w", err)
	}

	var options Options
	err = json.Unmarshal(jsonc.ToJSON(data), &options)
	if err != nil {
		return nil, fmt.Errorf("fail to parse config: %w", err)
	}
	if options.RootDir == "" {
		options.RootDir = filepath.Dir(filename)
	} else if !filepath.IsAbs(options.RootDir) {
		options.RootDir = filepath.Join(filepath.Dir(filename), options.RootDir)
	}
	if err = normalizeOptions(&options); err != nil {
		return nil, err
	}
	return &options, nil
}

// LoadOptionsFromDir loads `packem.config.json` from the given directory, or
// the default options if it doesn't exist.
func LoadOptionsFromDir(rootDir string) (*Options, error) {
	filename := filepath.Join(rootDir, DefaultConfigFile)
	if _, err := os.Stat(filename); err == nil {
		return LoadOptions(filename)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return DefaultOptions(rootDir)
}

// DefaultOptions returns the default options for the given root directory.
func DefaultOptions(rootDir string) (*Options, error) {
	options := &Options{RootDir: rootDir}
	if err := normalizeOptions(options); err != nil {
		return nil, err
	}
	return options, nil
}

func normalizeOptions(options *Options) (err error) {
	if options.RootDir == "" {
		options.RootDir, err = os.Getwd()
		if err != nil {
			return
		}
	}
	options.RootDir, err = filepath.Abs(options.RootDir)
	if err != nil {
		return fmt.Errorf("fail to get absolute path of the root directory: %w", err)
	}

	// variables of the environment take precedence over the `.env` file
	_ = godotenv.Load(filepath.Join(options.RootDir, ".env"))

	if options.SourceDir == "" {
		options.SourceDir = "src"
	}
	if options.OutDir == "" {
		options.OutDir = "dist"
	}
	if options.SourceDir, err = relDir(options.RootDir, options.SourceDir); err != nil {
		return
	}
	if options.OutDir, err = relDir(options.RootDir, options.OutDir); err != nil {
		return
	}
	options.Declaration, err = ParseDeclarationMode(options.DeclarationRaw)
	if err != nil {
		return
	}
	if options.Runtime == "" {
		options.Runtime = RuntimeNode
	} else if !options.Runtime.IsValid() {
		return fmt.Errorf("invalid runtime %q", options.Runtime)
	}
	if options.Environment == "" {
		switch env := Environment(os.Getenv("NODE_ENV")); env {
		case EnvironmentDevelopment, EnvironmentProduction:
			options.Environment = env
		}
	} else if options.Environment != EnvironmentDevelopment && options.Environment != EnvironmentProduction {
		return fmt.Errorf("invalid environment %q", options.Environment)
	}
	if options.Target == "" {
		options.Target = "es2020"
	}
	if options.Node10Compatibility.Writer == "" {
		options.Node10Compatibility.Writer = "console"
	}
	if options.Node10Compatibility.TypeScriptVersion == "" {
		options.Node10Compatibility.TypeScriptVersion = "*"
	}
	if options.LogLevel == "" {
		options.LogLevel = os.Getenv("PACKEM_LOG_LEVEL")
		if options.LogLevel == "" {
			options.LogLevel = "info"
		}
	}
	return nil
}

// relDir returns the directory relative to the root in slash form, without
// a leading `./` or a trailing `/`.
func relDir(rootDir string, dir string) (string, error) {
	if filepath.IsAbs(dir) {
		rel, err := filepath.Rel(rootDir, dir)
		if err != nil {
			return "", fmt.Errorf("directory %s is not inside %s: %w", dir, rootDir, err)
		}
		dir = rel
	}
	dir = filepath.ToSlash(filepath.Clean(dir))
	if dir == "." || strings.HasPrefix(dir, "../") {
		return "", fmt.Errorf("directory %q must be a sub directory of the root", dir)
	}
	return dir, nil
}
