package npm

import (
	"testing"
)

func TestOverlayPublishConfig(t *testing.T) {
	exports := NewJSONObject([]string{"."}, map[string]any{".": "./lib/index.mjs"})
	p := &PackageJSON{
		Type:    "commonjs",
		Main:    "./src/index.ts",
		Module:  "./src/index.ts",
		Types:   "./src/index.ts",
		Exports: "./src/index.ts",
		PublishConfig: &PublishConfig{
			Type:    "module",
			Main:    "./lib/index.cjs",
			Types:   "./lib/index.d.ts",
			Typings: "./lib/index.d.ts",
			Bin:     []BinEntry{{Name: "cli", Path: "./lib/cli.mjs"}},
			Exports: exports,
		},
	}

	t.Run("declaration unset", func(t *testing.T) {
		o := OverlayPublishConfig(p, true)
		if o.Type != "module" || o.Main != "./lib/index.cjs" {
			t.Fatalf("Expected type/main overrides, got %q %q", o.Type, o.Main)
		}
		if o.Module != "./src/index.ts" {
			t.Fatalf("Expected empty publishConfig.module not to override, got %q", o.Module)
		}
		if o.Types != "./lib/index.d.ts" || o.Typings != "./lib/index.d.ts" {
			t.Fatalf("Expected types overrides, got %q %q", o.Types, o.Typings)
		}
		if len(o.Bin) != 1 || o.Bin[0].Path != "./lib/cli.mjs" {
			t.Fatalf("Expected bin override, got %v", o.Bin)
		}
		if _, ok := o.Exports.(JSONObject); !ok {
			t.Fatalf("Expected exports override, got %T", o.Exports)
		}
	})

	t.Run("explicit declaration", func(t *testing.T) {
		o := OverlayPublishConfig(p, false)
		if o.Types != "./src/index.ts" || o.Typings != "" {
			t.Fatalf("Expected types to be kept, got %q %q", o.Types, o.Typings)
		}
		if o.Main != "./lib/index.cjs" {
			t.Fatalf("Expected main override, got %q", o.Main)
		}
	})

	if p.Main != "./src/index.ts" || p.Type != "commonjs" {
		t.Fatal("Expected the input package to be left untouched")
	}
}

func TestOverlayPublishConfigEmpty(t *testing.T) {
	p := &PackageJSON{
		Main:          "./dist/index.cjs",
		Exports:       "./dist/index.cjs",
		PublishConfig: &PublishConfig{Exports: NewJSONObject(nil, nil)},
	}
	o := OverlayPublishConfig(p, true)
	if o.Exports != "./dist/index.cjs" || o.Main != "./dist/index.cjs" {
		t.Fatalf("Expected empty overrides to be ignored, got %v %q", o.Exports, o.Main)
	}
	if o := OverlayPublishConfig(&PackageJSON{Main: "x"}, true); o.Main != "x" {
		t.Fatal("Expected a package without publishConfig to be copied as is")
	}
}
