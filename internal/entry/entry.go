// Package entry infers the build entries of a package from its package.json
// and its source files.
package entry

import (
	"errors"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/exports"
)

// ErrTypeScriptNotFound is returned when a TypeScript source is used as an
// entry but `typescript` is not a dependency of the package.
var ErrTypeScriptNotFound = errors.New("You tried to use a `.ts`, `.cts` or `.mts` file but `typescript` was not found in your package.json.")

// Logger receives informational notices of the inference.
type Logger interface {
	Debugf(format string, v ...any)
}

// BuildEntry is a source file to bundle and the outputs it has to produce.
type BuildEntry struct {
	// Input is the absolute path of the source file, or of the source
	// directory (ending with `/`) for directory mappings.
	Input string
	// Name is the output path relative to the out directory without
	// extension.
	Name string
	// ExportKey holds the export subpaths the entry satisfies, in the order
	// they were found.
	ExportKey   []string
	CJS         bool
	ESM         bool
	Environment config.Environment
	Runtime     config.Runtime
	Declaration config.DeclarationMode
	Executable  bool
	IsGlob      bool
	// OutDir is set when the export target is a directory.
	OutDir string
	// FileAlias is set when the output is named differently from the source,
	// e.g. `index.development` built from `index.ts`.
	FileAlias string
	// CJSExtensions and ESMExtensions hold the extensions of the declared
	// outputs per format, e.g. `.cjs` for `"main": "./dist/index.cjs"`.
	CJSExtensions []string
	ESMExtensions []string
}

// HasExportKey returns true if the entry satisfies the given export subpath.
func (e *BuildEntry) HasExportKey(key string) bool {
	for _, k := range e.ExportKey {
		if k == key {
			return true
		}
	}
	return false
}

// ExportKeys returns the sorted export subpaths of the entry.
func (e *BuildEntry) ExportKeys() []string {
	keys := append([]string(nil), e.ExportKey...)
	sort.Strings(keys)
	return keys
}

func (e *BuildEntry) addExportKey(key string) {
	if key != "" && !e.HasExportKey(key) {
		e.ExportKey = append(e.ExportKey, key)
	}
}

func (e *BuildEntry) addOutputExtension(format exports.Format, file string) {
	ext := path.Ext(file)
	switch ext {
	case ".js", ".cjs", ".mjs":
	default:
		return
	}
	switch format {
	case exports.FormatCJS:
		e.CJSExtensions = appendUniqueString(e.CJSExtensions, ext)
	case exports.FormatESM:
		e.ESMExtensions = appendUniqueString(e.ESMExtensions, ext)
	}
}

// OutputExtensions returns the declared extensions of the given format.
func (e *BuildEntry) OutputExtensions(format exports.Format) []string {
	if format == exports.FormatESM {
		return e.ESMExtensions
	}
	return e.CJSExtensions
}

func appendUniqueString(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// MarshalJSON implements the json.Marshaler interface
func (e BuildEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Input       string                 `json:"input"`
		Name        string                 `json:"name"`
		ExportKey   []string               `json:"exportKey,omitempty"`
		CJS         bool                   `json:"cjs,omitempty"`
		ESM         bool                   `json:"esm,omitempty"`
		Environment config.Environment     `json:"environment,omitempty"`
		Runtime     config.Runtime         `json:"runtime"`
		Declaration config.DeclarationMode `json:"declaration"`
		Executable  bool                   `json:"executable,omitempty"`
		IsGlob      bool                   `json:"isGlob,omitempty"`
		OutDir      string                 `json:"outDir,omitempty"`
		FileAlias   string                 `json:"fileAlias,omitempty"`
		CJSExts     []string               `json:"cjsExtensions,omitempty"`
		ESMExts     []string               `json:"esmExtensions,omitempty"`
	}{e.Input, e.Name, e.ExportKey, e.CJS, e.ESM, e.Environment, e.Runtime, e.Declaration, e.Executable, e.IsGlob, e.OutDir, e.FileAlias, e.CJSExtensions, e.ESMExtensions})
}

// Result is the outcome of the inference.
type Result struct {
	Entries  []BuildEntry
	Warnings []string
	// Declaration is the global declaration mode after the `types` field was
	// taken into account.
	Declaration config.DeclarationMode
}

// Context holds the build options the inference depends on.
type Context struct {
	RootDir          string
	SourceDir        string
	OutDir           string
	Declaration      config.DeclarationMode
	Runtime          config.Runtime
	Environment      config.Environment
	IgnoreExportKeys []string
	// FileExists reports whether a declared output already exists, it
	// defaults to a stat of the file.
	FileExists func(filename string) bool
	Logger     Logger
}

// NewContext creates a context from build options.
func NewContext(options *config.Options, logger Logger) *Context {
	return &Context{
		RootDir:          options.RootDir,
		SourceDir:        options.SourceDir,
		OutDir:           options.OutDir,
		Declaration:      options.Declaration,
		Runtime:          options.Runtime,
		Environment:      options.Environment,
		IgnoreExportKeys: options.IgnoreExportKeys,
		Logger:           logger,
	}
}

func (ctx *Context) fileExists(filename string) bool {
	if ctx.FileExists != nil {
		return ctx.FileExists(filename)
	}
	fi, err := os.Stat(filename)
	return err == nil && !fi.IsDir()
}

func (ctx *Context) debugf(format string, v ...any) {
	if ctx.Logger != nil {
		ctx.Logger.Debugf(format, v...)
	}
}

// PathSlice sorts paths by depth, least nested first, then lexically.
type PathSlice []string

func (a PathSlice) Len() int      { return len(a) }
func (a PathSlice) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a PathSlice) Less(i, j int) bool {
	di := strings.Count(strings.TrimSuffix(a[i], "/"), "/")
	dj := strings.Count(strings.TrimSuffix(a[j], "/"), "/")
	if di != dj {
		return di < dj
	}
	return a[i] < a[j]
}
