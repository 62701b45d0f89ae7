package entry

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ije/gox/set"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/exports"
	"github.com/visulima/packem-sub001/internal/npm"
	"github.com/visulima/packem-sub001/internal/pattern"
)

// Infer matches the outputs declared by the package.json against the source
// files and returns the build entries. sourceFiles are absolute slash paths,
// directories end with `/`.
//
// Infer fails only when a TypeScript source is used without `typescript`
// being a dependency, or when an exported file contradicts the package type.
// Outputs that match no source are reported as warnings.
func Infer(pkg *npm.PackageJSON, sourceFiles []string, ctx *Context) (*Result, error) {
	s := newSession(pkg, sourceFiles, ctx)
	outputs, err := s.outputs()
	if err != nil {
		return nil, err
	}
	for _, output := range outputs {
		if output.Ignored {
			continue
		}
		if err = s.resolve(output); err != nil {
			return nil, err
		}
	}
	return &Result{
		Entries:     s.entries.list(),
		Warnings:    s.warnings,
		Declaration: s.declaration,
	}, nil
}

// session holds the state of a single inference run.
type session struct {
	ctx         *Context
	pkg         *npm.PackageJSON
	// root is the slash root directory ending with `/`, it is stripped from
	// the source files before matching
	root        string
	packageType exports.Format
	declaration config.DeclarationMode
	files       []string
	fileSet     *set.Set[string]
	entries     *collector
	warnings    []string
	// privateNoticeShown is set once the private subfolder notice was logged
	privateNoticeShown bool
}

func newSession(pkg *npm.PackageJSON, sourceFiles []string, ctx *Context) *session {
	files := make([]string, len(sourceFiles))
	fileSet := set.New[string]()
	for i, f := range sourceFiles {
		files[i] = filepath.ToSlash(f)
		fileSet.Add(files[i])
	}
	sort.Sort(PathSlice(files))
	return &session{
		ctx:         ctx,
		pkg:         pkg,
		root:        strings.TrimSuffix(filepath.ToSlash(ctx.RootDir), "/") + "/",
		packageType: exports.PackageFormat(pkg.Type),
		declaration: ctx.Declaration,
		files:       files,
		fileSet:     fileSet,
		entries:     newCollector(),
	}
}

// outputs collects the declared outputs in the order bin, main, module,
// types and exports.
func (s *session) outputs() (outputs []exports.OutputDescriptor, err error) {
	for _, bin := range s.pkg.Bin {
		f, err := exports.CheckFormat(bin.Path, s.packageType)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, exports.OutputDescriptor{
			File:         bin.Path,
			Key:          exports.KeyBin,
			Type:         f,
			IsExecutable: true,
		})
	}
	if s.pkg.Main != "" {
		outputs = append(outputs, exports.OutputDescriptor{
			File: s.pkg.Main,
			Key:  exports.KeyMain,
			Type: s.formatOf(s.pkg.Main),
		})
	}
	if s.pkg.Module != "" {
		outputs = append(outputs, exports.OutputDescriptor{
			File: s.pkg.Module,
			Key:  exports.KeyModule,
			Type: exports.FormatESM,
		})
	}
	if types := s.pkg.TypesField(); types != "" && s.declaration != config.DeclarationOff {
		if !s.pkg.HasDependency("typescript") {
			return nil, ErrTypeScriptNotFound
		}
		if s.declaration == config.DeclarationUnset {
			s.declaration = config.DeclarationCompatible
		}
		outputs = append(outputs, exports.OutputDescriptor{
			File: types,
			Key:  exports.KeyTypes,
			Type: s.formatOf(types),
		})
	}
	if s.pkg.Exports != nil {
		exportOutputs, err := exports.Extract(exports.FromJSON(s.pkg.Exports), s.packageType, s.declaration, s.ctx.IgnoreExportKeys)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, exportOutputs...)
	}
	return
}

func (s *session) formatOf(filename string) exports.Format {
	if f, ok := exports.InferTypeFromFilename(filename); ok {
		return f
	}
	return s.packageType
}

func (s *session) resolve(output exports.OutputDescriptor) error {
	outputSlug := outputSlugOf(output.File)
	if outputSlug == "" || outputSlug == "/" || outputSlug == "." {
		// re-exporting the package root is not supported
		return nil
	}
	sourceSlug := s.sourceSlugOf(outputSlug)

	if output.Key == exports.KeyExports && strings.Contains(output.File, "/*") {
		return s.resolvePattern(output, outputSlug, sourceSlug)
	}

	isDir := strings.HasSuffix(outputSlug, "/")
	input := s.findSource(sourceSlug, isDir)
	if input == "" {
		if isDir || !s.ctx.fileExists(filepath.Join(s.ctx.RootDir, filepath.FromSlash(output.File))) {
			s.warn(output.File)
		}
		return nil
	}

	if !isDir {
		base := trimExtension(input)
		if cts, mts := base+".cts", base+".mts"; s.fileSet.Has(cts) && s.fileSet.Has(mts) {
			for _, dual := range []struct {
				input  string
				format exports.Format
			}{{cts, exports.FormatCJS}, {mts, exports.FormatESM}} {
				o := output
				o.Type = dual.format
				entry, err := s.createOrUpdateEntry(dual.input, o, outputSlug, "", false)
				if err != nil {
					return err
				}
				// the declared file only names the output of its own format
				if dual.format == output.Type {
					entry.addOutputExtension(o.Type, o.File)
				}
			}
			return nil
		}
	}
	entry, err := s.createOrUpdateEntry(input, output, outputSlug, "", false)
	if err != nil {
		return err
	}
	entry.addOutputExtension(output.Type, output.File)
	return nil
}

// findSource returns the least nested source matching the slug, retrying
// without a special convention suffix, e.g. `src/index.production` falls back
// to `src/index`.
func (s *session) findSource(sourceSlug string, isDir bool) string {
	p := pattern.Compile(sourceSlug)
	if isDir {
		for _, f := range s.files {
			if p.MatchDir(s.relative(f)) {
				return f
			}
		}
		return ""
	}
	for _, slug := range []string{sourceSlug, stripConvention(sourceSlug)} {
		if slug == "" {
			continue
		}
		p = pattern.Compile(slug)
		for _, f := range s.files {
			if isDeclarationFile(f) {
				continue
			}
			if _, ok := p.Match(s.relative(f)); ok {
				return f
			}
		}
	}
	return ""
}

func (s *session) resolvePattern(output exports.OutputDescriptor, outputSlug string, sourceSlug string) error {
	primary := pattern.Compile(sourceSlug)
	var secondary *pattern.Pattern
	if slug := stripConvention(sourceSlug); slug != "" {
		p := pattern.Compile(slug)
		secondary = &p
	}

	found := false
	for _, f := range s.files {
		if isDeclarationFile(f) {
			continue
		}
		rel := s.relative(f)
		capture, ok := primary.Match(rel)
		if !ok && secondary != nil {
			capture, ok = secondary.Match(rel)
			// a file of another convention belongs to another output
			if ok && stripConvention(capture) != "" {
				ok = false
			}
		}
		if !ok {
			continue
		}
		if isPrivatePath(capture) {
			if !s.privateNoticeShown {
				s.privateNoticeShown = true
				s.ctx.debugf("Private subfolders are not supported, %s is skipped", f)
			}
			continue
		}
		found = true
		entry, err := s.createOrUpdateEntry(f, output, outputSlug, capture, true)
		if err != nil {
			return err
		}
		entry.addOutputExtension(output.Type, output.File)
	}
	if !found {
		s.warn(output.File)
	}
	return nil
}

func (s *session) createOrUpdateEntry(input string, output exports.OutputDescriptor, outputSlug string, capture string, isGlob bool) (*BuildEntry, error) {
	if isTypeScriptFile(input) && !s.pkg.HasDependency("typescript") {
		return nil, ErrTypeScriptNotFound
	}

	isDir := strings.HasSuffix(input, "/")
	environment, runtime := s.environmentOf(output), s.runtimeOf(output)
	entry := s.entries.get(input, environment, runtime)
	if entry == nil {
		declaration := s.declaration
		if declaration == config.DeclarationUnset {
			declaration = config.DeclarationOff
		}
		entry = s.entries.add(&BuildEntry{
			Input:       input,
			Environment: environment,
			Runtime:     runtime,
			Declaration: declaration,
		})
	}

	entry.addExportKey(output.ExportKey)
	if isGlob {
		entry.IsGlob = true
	}

	if isDeclarationFile(output.File) {
		// executables never emit declarations
		if s.declaration != config.DeclarationOff && !entry.Executable {
			entry.Declaration = s.declaration
			if entry.Declaration == config.DeclarationUnset {
				entry.Declaration = config.DeclarationCompatible
			}
		}
	} else {
		switch output.Type {
		case exports.FormatCJS:
			entry.CJS = true
		case exports.FormatESM:
			entry.ESM = true
		}
	}

	if output.IsExecutable {
		entry.Executable = true
		entry.Declaration = config.DeclarationOff
	}

	outputName := strings.TrimPrefix(outputSlug, s.ctx.OutDir+"/")
	if isGlob {
		outputName = strings.Replace(outputName, "*", capture, 1)
	}
	if isDir {
		entry.OutDir = outputSlug
		entry.Name = strings.TrimSuffix(outputName, "/")
		return entry, nil
	}

	inputName := s.inputNameOf(input)
	if entry.FileAlias == "" && outputName != inputName && isSpecialConvention(output) {
		entry.FileAlias = outputName
	}
	entry.Name = inputName
	if entry.FileAlias != "" {
		entry.Name = entry.FileAlias
	}
	return entry, nil
}

// environmentOf returns the environment named by the closest condition, or
// the environment of the build.
func (s *session) environmentOf(output exports.OutputDescriptor) config.Environment {
	for _, condition := range conditionsOf(output) {
		switch env := config.Environment(condition); env {
		case config.EnvironmentDevelopment, config.EnvironmentProduction:
			return env
		}
	}
	return s.ctx.Environment
}

// runtimeOf returns the runtime named by the closest condition or by the
// output filename, or the runtime of the build.
func (s *session) runtimeOf(output exports.OutputDescriptor) config.Runtime {
	for _, condition := range conditionsOf(output) {
		if isRuntimeConvention(condition) {
			return config.Runtime(condition)
		}
	}
	base := path.Base(output.File)
	for _, rt := range runtimeConventions {
		if strings.Contains(base, "."+string(rt)+".") {
			return rt
		}
	}
	if s.ctx.Runtime == "" {
		return config.RuntimeNode
	}
	return s.ctx.Runtime
}

// inputNameOf returns the input path relative to the source directory
// without extension.
func (s *session) inputNameOf(input string) string {
	name := strings.TrimPrefix(s.relative(input), s.ctx.SourceDir+"/")
	return trimExtension(name)
}

// relative returns the source file path relative to the root directory.
func (s *session) relative(filename string) string {
	return strings.TrimPrefix(filename, s.root)
}

// sourceSlugOf swaps the out directory prefix of an output slug with the
// source directory.
func (s *session) sourceSlugOf(outputSlug string) string {
	if rest, ok := strings.CutPrefix(outputSlug, s.ctx.OutDir+"/"); ok {
		return s.ctx.SourceDir + "/" + rest
	}
	return outputSlug
}

func (s *session) warn(file string) {
	s.warnings = append(s.warnings, fmt.Sprintf("Could not find entrypoint for `%s`", file))
}

// collector keeps the entries unique per input, environment and runtime, in
// the order they were created.
type collector struct {
	entries []*BuildEntry
	index   map[entryIdentity]*BuildEntry
}

type entryIdentity struct {
	input       string
	environment config.Environment
	runtime     config.Runtime
}

func newCollector() *collector {
	return &collector{index: make(map[entryIdentity]*BuildEntry)}
}

func (c *collector) get(input string, environment config.Environment, runtime config.Runtime) *BuildEntry {
	return c.index[entryIdentity{input, environment, runtime}]
}

func (c *collector) add(entry *BuildEntry) *BuildEntry {
	c.index[entryIdentity{entry.Input, entry.Environment, entry.Runtime}] = entry
	c.entries = append(c.entries, entry)
	return entry
}

func (c *collector) list() []BuildEntry {
	list := make([]BuildEntry, len(c.entries))
	for i, entry := range c.entries {
		list[i] = *entry
	}
	return list
}
