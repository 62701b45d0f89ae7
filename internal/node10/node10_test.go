package node10

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/entry"
)

type infoLogger struct {
	messages []string
}

func (l *infoLogger) Infof(format string, v ...any) {
	l.messages = append(l.messages, fmt.Sprintf(format, v...))
}

var testEntries = []entry.BuildEntry{
	{Input: "/pkg/src/index.ts", Name: "index", ExportKey: []string{"."}, CJS: true, Declaration: config.DeclarationCompatible},
	{Input: "/pkg/src/utils/a.ts", Name: "utils/a", ExportKey: []string{"utils/*"}, ESM: true, IsGlob: true, Declaration: config.DeclarationCompatible},
	{Input: "/pkg/src/utils/b.ts", Name: "utils/b", ExportKey: []string{"utils/*"}, ESM: true, IsGlob: true, Declaration: config.DeclarationCompatible},
	{Input: "/pkg/src/cli.ts", Name: "cli", CJS: true, Executable: true, Declaration: config.DeclarationOff},
	{Input: "/pkg/src/sub.ts", Name: "sub", ExportKey: []string{"sub", "sub/index"}, CJS: true, Declaration: config.DeclarationCompatible},
}

func TestTypesVersions(t *testing.T) {
	paths := TypesVersions(testEntries, "dist")
	data, err := paths.MarshalJSON()
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	expected := `{".":["./dist/index.d.ts"],"utils/*":["./dist/utils/*"],"sub":["./dist/sub.d.ts"],"sub/index":["./dist/sub.d.ts"]}`
	if string(data) != expected {
		t.Fatalf("Expected %s, got %s", expected, data)
	}
}

func TestEmitFile(t *testing.T) {
	rootDir := t.TempDir()
	pkgFile := filepath.Join(rootDir, "package.json")
	err := os.WriteFile(pkgFile, []byte(`{
    "name": "pkg",
    "version": "1.0.0",
    "typesVersions": {
        ">=4.0": {
            ".": ["./types/index.d.ts"]
        }
    },
    "devDependencies": {
        "typescript": "^5.0.0"
    }
}
`), 0644)
	if err != nil {
		t.Fatalf("Failed to write package.json: %v", err)
	}

	err = Emit(&infoLogger{}, testEntries, "dist", rootDir, ModeFile, ">=4.0")
	if err != nil {
		t.Fatalf("Failed to emit typesVersions: %v", err)
	}

	data, err := os.ReadFile(pkgFile)
	if err != nil {
		t.Fatalf("Failed to read package.json: %v", err)
	}
	expected := `{
    "name": "pkg",
    "version": "1.0.0",
    "typesVersions": {
        ">=4.0": {
            ".": [
                "./types/index.d.ts",
                "./dist/index.d.ts"
            ],
            "utils/*": [
                "./dist/utils/*"
            ],
            "sub": [
                "./dist/sub.d.ts"
            ],
            "sub/index": [
                "./dist/sub.d.ts"
            ]
        }
    },
    "devDependencies": {
        "typescript": "^5.0.0"
    }
}
`
	if string(data) != expected {
		t.Fatalf("Unexpected package.json:\n%s", data)
	}

	// emitting twice does not duplicate paths
	err = Emit(&infoLogger{}, testEntries, "dist", rootDir, ModeFile, ">=4.0")
	if err != nil {
		t.Fatalf("Failed to emit typesVersions: %v", err)
	}
	again, _ := os.ReadFile(pkgFile)
	if string(again) != expected {
		t.Fatalf("Unexpected package.json after the second run:\n%s", again)
	}
}

func TestEmitConsole(t *testing.T) {
	rootDir := t.TempDir()
	logger := &infoLogger{}
	err := Emit(logger, testEntries[:1], "dist", rootDir, ModeConsole, "*")
	if err != nil {
		t.Fatalf("Failed to emit typesVersions: %v", err)
	}
	if len(logger.messages) != 1 || !strings.Contains(logger.messages[0], `"./dist/index.d.ts"`) {
		t.Fatalf("Unexpected log output: %v", logger.messages)
	}
	if _, err := os.Stat(filepath.Join(rootDir, "package.json")); !os.IsNotExist(err) {
		t.Fatalf("Console mode must not write the package.json")
	}
}

func TestEmitWithoutDeclarations(t *testing.T) {
	logger := &infoLogger{}
	err := Emit(logger, testEntries[3:4], "dist", t.TempDir(), ModeFile, "*")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(logger.messages) != 1 {
		t.Fatalf("Expected a notice, got %v", logger.messages)
	}
}

func TestInvalidVersionRange(t *testing.T) {
	err := Emit(&infoLogger{}, testEntries, "dist", t.TempDir(), ModeConsole, "not a range")
	var rangeErr *InvalidVersionRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Expected an InvalidVersionRangeError, got %v", err)
	}
	if rangeErr.Range != "not a range" {
		t.Fatalf("Unexpected range %q", rangeErr.Range)
	}
}
