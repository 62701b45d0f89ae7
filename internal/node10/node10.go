// Package node10 generates the `typesVersions` field of a package.json, so
// TypeScript resolves the subpath declarations with the legacy `node10`
// module resolution which ignores the `exports` field.
package node10

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/entry"
	"github.com/visulima/packem-sub001/internal/npm"
)

// Mode tells Emit where the `typesVersions` field goes.
type Mode string

const (
	// ModeConsole prints the field for the user to copy.
	ModeConsole Mode = "console"
	// ModeFile writes the field into the package.json.
	ModeFile Mode = "file"
)

// Logger receives the output of the console mode and notices.
type Logger interface {
	Infof(format string, v ...any)
}

// InvalidVersionRangeError is returned for a TypeScript version range that
// is neither `*` nor a valid semver range.
type InvalidVersionRangeError struct {
	Range string
	Err   error
}

func (e *InvalidVersionRangeError) Error() string {
	return fmt.Sprintf("invalid typescript version range %q: %v", e.Range, e.Err)
}

func (e *InvalidVersionRangeError) Unwrap() error {
	return e.Err
}

// Emit maps the export keys of the entries emitting `.d.ts` files to their
// declaration paths under `typesVersions[versionRange]`. In file mode the
// map is merged into `<rootDir>/package.json`, otherwise it is logged.
func Emit(logger Logger, entries []entry.BuildEntry, outDir string, rootDir string, mode Mode, versionRange string) error {
	if versionRange == "" {
		versionRange = "*"
	}
	if versionRange != "*" {
		if _, err := semver.NewConstraint(versionRange); err != nil {
			return &InvalidVersionRangeError{Range: versionRange, Err: err}
		}
	}

	paths := TypesVersions(entries, outDir)
	if paths.Len() == 0 {
		logger.Infof("No declaration files found, typesVersions is not needed")
		return nil
	}

	switch mode {
	case ModeFile:
		return writePackageJSON(filepath.Join(rootDir, "package.json"), versionRange, paths)
	case ModeConsole, "":
		snippet := npm.NewJSONObject(nil, nil)
		typesVersions := npm.NewJSONObject(nil, nil)
		typesVersions.Set(versionRange, paths)
		snippet.Set("typesVersions", typesVersions)
		data, err := marshalIndent(snippet, "  ")
		if err != nil {
			return err
		}
		logger.Infof("Add the following field to your package.json to support node10 module resolution:\n%s", data)
		return nil
	}
	return fmt.Errorf("unknown node10 compatibility mode %q", mode)
}

// TypesVersions returns the export key to declaration paths map of the
// entries, in the order of the entries.
func TypesVersions(entries []entry.BuildEntry, outDir string) npm.JSONObject {
	paths := npm.NewJSONObject(nil, nil)
	outDir = "./" + strings.Trim(strings.TrimPrefix(outDir, "./"), "/")
	for _, e := range entries {
		if e.Declaration != config.DeclarationCompatible {
			continue
		}
		var declaration string
		switch {
		case e.OutDir != "":
			declaration = "./" + strings.TrimSuffix(e.OutDir, "/") + "/*"
		case e.IsGlob:
			if dir := path.Dir(e.Name); dir != "." {
				declaration = outDir + "/" + dir + "/*"
			} else {
				declaration = outDir + "/*"
			}
		default:
			declaration = outDir + "/" + e.Name + ".d.ts"
		}
		for _, key := range e.ExportKey {
			v, _ := paths.Get(key)
			list, _ := v.([]any)
			paths.Set(key, appendUnique(list, declaration))
		}
	}
	return paths
}

func writePackageJSON(filename string, versionRange string, paths npm.JSONObject) error {
	pkg, data, err := npm.ReadPackageJSONObject(filename)
	if err != nil {
		return err
	}

	typesVersions := childObject(pkg, "typesVersions")
	merged := childObject(typesVersions, versionRange)
	for _, key := range paths.Keys() {
		v, _ := paths.Get(key)
		existing, _ := merged.Get(key)
		list, _ := existing.([]any)
		for _, p := range v.([]any) {
			list = appendUnique(list, p)
		}
		merged.Set(key, list)
	}
	typesVersions.Set(versionRange, merged)
	pkg.Set("typesVersions", typesVersions)

	out, err := marshalIndent(pkg, detectIndent(data))
	if err != nil {
		return err
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		out = append(out, '\n')
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(filename); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(filename, out, mode)
}

func childObject(obj npm.JSONObject, key string) npm.JSONObject {
	if v, ok := obj.Get(key); ok {
		if child, ok := v.(npm.JSONObject); ok {
			return child
		}
	}
	return npm.NewJSONObject(nil, nil)
}

func appendUnique(list []any, value any) []any {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func marshalIndent(obj npm.JSONObject, indent string) ([]byte, error) {
	data, err := obj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = json.Indent(&buf, data, "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectIndent returns the indentation of the first indented line, two
// spaces by default.
func detectIndent(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) > 0 && len(trimmed) < len(line) {
			return string(line[:len(line)-len(trimmed)])
		}
	}
	return "  "
}
