package sources

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestList(t *testing.T) {
	rootDir := t.TempDir()
	for _, name := range []string{
		"src/index.ts",
		"src/utils/a.ts",
		"src/utils/a.test.ts",
		"src/node_modules/dep/index.js",
		"src/__fixtures__/fixture.ts",
		"dist/index.js",
	} {
		filename := filepath.Join(rootDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(filename, []byte("export {}"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	files, err := List(rootDir, "src", "dist", []string{"**/*.test.ts", "./src/__fixtures__"})
	if err != nil {
		t.Fatalf("Failed to list sources: %v", err)
	}
	root := filepath.ToSlash(rootDir)
	expected := []string{
		root + "/src/index.ts",
		root + "/src/utils/",
		root + "/src/utils/a.ts",
	}
	if !reflect.DeepEqual(files, expected) {
		t.Fatalf("Expected %v, got %v", expected, files)
	}
}

func TestListMissingSourceDir(t *testing.T) {
	files, err := List(t.TempDir(), "src", "dist", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("Expected no files, got %v", files)
	}
}
