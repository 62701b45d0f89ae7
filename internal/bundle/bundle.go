// Package bundle builds the inferred entries with esbuild.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/entry"
	"github.com/visulima/packem-sub001/internal/exports"
	"github.com/visulima/packem-sub001/internal/npm"
	"golang.org/x/sync/errgroup"
)

const shebang = "#!/usr/bin/env node"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Logger receives the progress of the build.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
}

// job is a single esbuild invocation.
type job struct {
	entry  entry.BuildEntry
	format exports.Format
	ext    string
}

// Build bundles every entry once per requested format and declared output
// extension, using up to one
// esbuild invocation per CPU. It returns the written files relative to the
// root directory, sorted.
func Build(ctx context.Context, entries []entry.BuildEntry, pkg *npm.PackageJSON, options *config.Options, logger Logger) ([]string, error) {
	if _, ok := targets[strings.ToLower(options.Target)]; !ok {
		return nil, fmt.Errorf("invalid target %q", options.Target)
	}

	packageType := exports.PackageFormat(pkg.Type)
	var jobs []job
	for _, e := range entries {
		for _, format := range []exports.Format{exports.FormatCJS, exports.FormatESM} {
			if (format == exports.FormatCJS && !e.CJS) || (format == exports.FormatESM && !e.ESM) {
				continue
			}
			for _, ext := range outputExtensions(e, format, packageType) {
				jobs = append(jobs, job{e, format, ext})
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	var files []string
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perm := os.FileMode(0644)
			if j.entry.Executable {
				perm = 0755
			}
			outputs, err := run(buildOptions(j.entry, j.format, j.ext, pkg, options), perm)
			if err != nil {
				return fmt.Errorf("failed to build %s: %w", j.entry.Input, err)
			}
			logger.Debugf("built %s (%s%s, %s)", j.entry.Input, j.format, j.ext, j.entry.Runtime)

			mu.Lock()
			defer mu.Unlock()
			for _, f := range outputs {
				rel, err := filepath.Rel(options.RootDir, f)
				if err != nil {
					return err
				}
				files = append(files, filepath.ToSlash(rel))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(files)
	logger.Infof("%d files written to %s", len(files), options.OutDir)
	return files, nil
}

// run builds in memory and writes the output files with the given
// permission, it returns the paths of the written javascript files.
func run(opts api.BuildOptions, perm os.FileMode) ([]string, error) {
	ret := api.Build(opts)
	if len(ret.Errors) > 0 {
		return nil, errors.New(ret.Errors[0].Text)
	}
	outputs := make([]string, 0, len(ret.OutputFiles))
	for _, f := range ret.OutputFiles {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return nil, err
		}
		mode := perm
		if strings.HasSuffix(f.Path, ".map") {
			mode = 0644
		} else {
			outputs = append(outputs, f.Path)
		}
		if err := os.WriteFile(f.Path, f.Contents, mode); err != nil {
			return nil, err
		}
		// WriteFile keeps the mode of an existing file
		if err := os.Chmod(f.Path, mode); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// buildOptions returns the esbuild options of an entry in the given format,
// written with the given extension.
func buildOptions(e entry.BuildEntry, format exports.Format, ext string, pkg *npm.PackageJSON, options *config.Options) api.BuildOptions {
	opts := api.BuildOptions{
		Bundle:            true,
		Target:            targets[strings.ToLower(options.Target)],
		Platform:          platformOf(e.Runtime),
		External:          externals(pkg),
		MinifyWhitespace:  options.Minify,
		MinifyIdentifiers: options.Minify,
		MinifySyntax:      options.Minify,
		LogLevel:          api.LogLevelSilent,
		AbsWorkingDir:     options.RootDir,
	}
	if format == exports.FormatESM {
		opts.Format = api.FormatESModule
	} else {
		opts.Format = api.FormatCommonJS
	}
	if options.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	if e.Runtime != config.RuntimeNode && e.Runtime != config.RuntimeBrowser {
		opts.Conditions = []string{string(e.Runtime)}
	}
	if e.Environment != "" {
		opts.Define = map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", e.Environment),
		}
	}
	if e.Executable {
		opts.Banner = map[string]string{"js": shebang}
	}

	if e.OutDir != "" {
		// directory mappings are transpiled file by file
		opts.Bundle = false
		opts.External = nil
		opts.EntryPoints = []string{filepath.Join(filepath.FromSlash(e.Input), "**", "*")}
		opts.Outbase = filepath.FromSlash(e.Input)
		opts.Outdir = filepath.Join(options.RootDir, filepath.FromSlash(e.OutDir))
		opts.OutExtension = map[string]string{".js": ext}
		return opts
	}
	opts.EntryPoints = []string{filepath.FromSlash(e.Input)}
	opts.Outfile = filepath.Join(options.RootDir, filepath.FromSlash(options.OutDir), filepath.FromSlash(e.Name)+ext)
	return opts
}

// outputExtensions returns the extensions declared for the format by the
// package.json, or the one derived from the package type.
func outputExtensions(e entry.BuildEntry, format exports.Format, packageType exports.Format) []string {
	if exts := e.OutputExtensions(format); len(exts) > 0 {
		return exts
	}
	return []string{OutputExtension(format, packageType)}
}

// OutputExtension returns `.js` for the format of the package type, and
// `.cjs` or `.mjs` otherwise.
func OutputExtension(format exports.Format, packageType exports.Format) string {
	if format == packageType {
		return ".js"
	}
	if format == exports.FormatESM {
		return ".mjs"
	}
	return ".cjs"
}

func platformOf(rt config.Runtime) api.Platform {
	switch rt {
	case config.RuntimeBrowser, config.RuntimeReactNative:
		return api.PlatformBrowser
	case config.RuntimeEdgeLight:
		return api.PlatformNeutral
	}
	return api.PlatformNode
}

// externals keeps dependencies and peer dependencies (and their subpaths)
// out of the bundle.
func externals(pkg *npm.PackageJSON) []string {
	var names []string
	for _, deps := range []map[string]string{pkg.Dependencies, pkg.PeerDependencies} {
		for name := range deps {
			names = append(names, name, name+"/*")
		}
	}
	sort.Strings(names)
	return names
}
