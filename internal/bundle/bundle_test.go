package bundle

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/entry"
	"github.com/visulima/packem-sub001/internal/exports"
	"github.com/visulima/packem-sub001/internal/npm"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}

func TestOutputExtension(t *testing.T) {
	tests := []struct {
		format      exports.Format
		packageType exports.Format
		expected    string
	}{
		{exports.FormatCJS, exports.FormatCJS, ".js"},
		{exports.FormatESM, exports.FormatCJS, ".mjs"},
		{exports.FormatESM, exports.FormatESM, ".js"},
		{exports.FormatCJS, exports.FormatESM, ".cjs"},
	}
	for _, tt := range tests {
		if got := OutputExtension(tt.format, tt.packageType); got != tt.expected {
			t.Fatalf("OutputExtension(%s, %s): expected %s, got %s", tt.format, tt.packageType, tt.expected, got)
		}
	}
}

func TestDeclaredOutputExtensions(t *testing.T) {
	tests := []struct {
		entry       entry.BuildEntry
		format      exports.Format
		packageType exports.Format
		expected    []string
	}{
		// "main": "./dist/index.cjs" in a commonjs package
		{entry.BuildEntry{CJS: true, CJSExtensions: []string{".cjs"}}, exports.FormatCJS, exports.FormatCJS, []string{".cjs"}},
		// "import": "./dist/index.js" in a commonjs package
		{entry.BuildEntry{ESM: true, ESMExtensions: []string{".js"}}, exports.FormatESM, exports.FormatCJS, []string{".js"}},
		{entry.BuildEntry{CJS: true, CJSExtensions: []string{".js", ".cjs"}}, exports.FormatCJS, exports.FormatESM, []string{".js", ".cjs"}},
		{entry.BuildEntry{ESM: true}, exports.FormatESM, exports.FormatCJS, []string{".mjs"}},
	}
	for i, tt := range tests {
		if got := outputExtensions(tt.entry, tt.format, tt.packageType); !reflect.DeepEqual(got, tt.expected) {
			t.Fatalf("#%d: expected %v, got %v", i, tt.expected, got)
		}
	}

	options := &config.Options{RootDir: "/pkg", OutDir: "dist", Target: "es2020"}
	e := entry.BuildEntry{Input: "/pkg/src/index.js", Name: "index", ESM: true, ESMExtensions: []string{".js"}, Runtime: config.RuntimeNode}
	opts := buildOptions(e, exports.FormatESM, outputExtensions(e, exports.FormatESM, exports.FormatCJS)[0], &npm.PackageJSON{}, options)
	if opts.Outfile != filepath.Join("/pkg", "dist", "index.js") || opts.Format != api.FormatESModule {
		t.Fatalf("Unexpected outfile %s", opts.Outfile)
	}
}

func TestBuildOptions(t *testing.T) {
	pkg := &npm.PackageJSON{
		Type:             "module",
		Dependencies:     map[string]string{"react": "^19.0.0"},
		PeerDependencies: map[string]string{"@scope/peer": "*"},
	}
	options := &config.Options{RootDir: "/pkg", OutDir: "dist", Target: "es2020", Minify: true}

	opts := buildOptions(entry.BuildEntry{
		Input:       "/pkg/src/index.ts",
		Name:        "index.production",
		Runtime:     config.RuntimeReactServer,
		Environment: config.EnvironmentProduction,
	}, exports.FormatCJS, ".cjs", pkg, options)

	if opts.Outfile != filepath.Join("/pkg", "dist", "index.production.cjs") {
		t.Fatalf("Unexpected outfile %s", opts.Outfile)
	}
	if opts.Format != api.FormatCommonJS || opts.Platform != api.PlatformNode || opts.Target != api.ES2020 {
		t.Fatalf("Unexpected format, platform or target")
	}
	if !reflect.DeepEqual(opts.Conditions, []string{"react-server"}) {
		t.Fatalf("Unexpected conditions %v", opts.Conditions)
	}
	if opts.Define["process.env.NODE_ENV"] != `"production"` {
		t.Fatalf("Unexpected defines %v", opts.Define)
	}
	if !reflect.DeepEqual(opts.External, []string{"@scope/peer", "@scope/peer/*", "react", "react/*"}) {
		t.Fatalf("Unexpected externals %v", opts.External)
	}
	if !opts.MinifySyntax || opts.Banner != nil {
		t.Fatalf("Unexpected minify or banner options")
	}

	opts = buildOptions(entry.BuildEntry{
		Input:      "/pkg/src/cli.ts",
		Name:       "cli",
		Runtime:    config.RuntimeNode,
		Executable: true,
	}, exports.FormatESM, ".js", pkg, options)
	if opts.Banner["js"] != shebang || opts.Conditions != nil || opts.Define != nil {
		t.Fatalf("Unexpected options for an executable: %+v", opts)
	}

	opts = buildOptions(entry.BuildEntry{
		Input:   "/pkg/src/runtime/",
		Name:    "runtime",
		OutDir:  "dist/runtime/",
		Runtime: config.RuntimeEdgeLight,
	}, exports.FormatESM, ".js", pkg, options)
	if opts.Bundle || opts.Outdir != filepath.Join("/pkg", "dist", "runtime") || opts.OutExtension[".js"] != ".js" {
		t.Fatalf("Unexpected options for a directory: %+v", opts)
	}
	if opts.Platform != api.PlatformNeutral {
		t.Fatalf("Expected the neutral platform for edge-light")
	}
}

func TestBuild(t *testing.T) {
	rootDir := t.TempDir()
	srcDir := filepath.Join(rootDir, "src")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "index.js"), []byte("export const answer = 42;\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "cli.js"), []byte("console.log('hello');\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	root := filepath.ToSlash(rootDir)
	entries := []entry.BuildEntry{
		{Input: root + "/src/index.js", Name: "index", CJS: true, ESM: true, Runtime: config.RuntimeNode},
		{Input: root + "/src/cli.js", Name: "cli", CJS: true, Runtime: config.RuntimeNode, Executable: true},
	}
	options := &config.Options{RootDir: rootDir, OutDir: "dist", Target: "es2020"}
	files, err := Build(context.Background(), entries, &npm.PackageJSON{Name: "pkg"}, options, nopLogger{})
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"dist/cli.js", "dist/index.js", "dist/index.mjs"}) {
		t.Fatalf("Unexpected files %v", files)
	}

	data, err := os.ReadFile(filepath.Join(rootDir, "dist", "cli.js"))
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), shebang) {
		t.Fatalf("Expected a shebang, got %q", data)
	}
	fi, err := os.Stat(filepath.Join(rootDir, "dist", "cli.js"))
	if err != nil {
		t.Fatalf("Failed to stat output: %v", err)
	}
	if fi.Mode().Perm()&0100 == 0 {
		t.Fatalf("Expected an executable output, got mode %v", fi.Mode())
	}
}

func TestBuildInvalidTarget(t *testing.T) {
	_, err := Build(context.Background(), nil, &npm.PackageJSON{}, &config.Options{Target: "es3"}, nopLogger{})
	if err == nil {
		t.Fatalf("Expected an error for an invalid target")
	}
}
