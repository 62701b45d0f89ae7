package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWarningTarget(t *testing.T) {
	if target := warningTarget("Could not find entrypoint for `./dist/a.mjs`"); target != "./dist/a.mjs" {
		t.Fatalf("Expected './dist/a.mjs', got '%s'", target)
	}
	if target := warningTarget("no quotes"); target != "" {
		t.Fatalf("Expected an empty target, got '%s'", target)
	}
}

func TestLoadProject(t *testing.T) {
	rootDir := t.TempDir()
	files := map[string]string{
		"package.json": `{
			"name": "pkg",
			"type": "module",
			"exports": {
				".": "./dist/index.js",
				"./missing": "./dist/missing.js"
			},
			"publishConfig": {
				"exports": {
					".": "./dist/index.js",
					"./utils": "./dist/utils.js"
				}
			}
		}`,
		"packem.config.json": `{
			// sources live in src
			"sourceDir": "src",
		}`,
		"src/index.js":  "export default 1",
		"src/utils.js":  "export default 2",
		"dist/stale.js": "",
	}
	for name, content := range files {
		filename := filepath.Join(rootDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	configFile, debug := "", false
	p, err := loadProject(rootDir, commonFlags{config: &configFile, debug: &debug})
	if err != nil {
		t.Fatalf("Failed to load project: %v", err)
	}
	defer p.log.FlushBuffer()

	if len(p.result.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %+v", p.result.Entries)
	}
	if e := p.result.Entries[1]; e.Name != "utils" || !e.ESM || !e.HasExportKey("utils") {
		t.Fatalf("Unexpected entry %+v", e)
	}
	if len(p.result.Warnings) != 0 {
		t.Fatalf("Expected no warnings, got %v", p.result.Warnings)
	}
}
