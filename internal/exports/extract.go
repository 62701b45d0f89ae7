package exports

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ije/gox/set"
	"github.com/visulima/packem-sub001/internal/config"
)

// Key is the package.json field an output was declared in.
type Key string

const (
	KeyExports Key = "exports"
	KeyMain    Key = "main"
	KeyModule  Key = "module"
	KeyTypes   Key = "types"
	KeyBin     Key = "bin"
)

// OutputDescriptor is a single output file declared by the package.json.
type OutputDescriptor struct {
	// File is the declared path, it may contain a `*` subpath wildcard.
	File string
	Key  Key
	// SubKey is the condition the file was declared under, Conditions holds
	// the enclosing conditions outermost first.
	SubKey       string
	Conditions   []string
	ExportKey    string
	Type         Format
	IsExecutable bool
	// Ignored outputs are kept for traceability but never become entries.
	Ignored bool
}

// FormatMismatchError is returned when the extension of an exported file
// contradicts the package.json `type` field.
type FormatMismatchError struct {
	File        string
	PackageType Format
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("Exported file %q has an extension that does not match the package.json type %q.", e.File, e.PackageType.PackageType())
}

// CheckFormat returns a FormatMismatchError if the extension of the file
// contradicts the package type, otherwise the format of the file.
func CheckFormat(file string, packageType Format) (Format, error) {
	f, ok := InferTypeFromFilename(file)
	if !ok {
		return packageType, nil
	}
	if f != packageType {
		return "", &FormatMismatchError{File: file, PackageType: packageType}
	}
	return f, nil
}

// Extract flattens an `exports` field into output descriptors, in the order
// the keys are declared.
func Extract(value ExportValue, packageType Format, declaration config.DeclarationMode, ignoreKeys []string) ([]OutputDescriptor, error) {
	x := &extractor{
		packageType: packageType,
		skipTypes:   declaration == config.DeclarationOff,
		ignored:     set.New[string](),
	}
	for _, key := range ignoreKeys {
		x.ignored.Add(strings.TrimPrefix(key, "./"))
	}

	switch v := value.(type) {
	case StringExport:
		f, err := CheckFormat(v.Path, packageType)
		if err != nil {
			return nil, err
		}
		return []OutputDescriptor{{File: v.Path, Key: KeyExports, ExportKey: ".", Type: f}}, nil
	case ConditionMapExport:
		return x.walk(v, ".", nil, false), nil
	}
	return nil, nil
}

type extractor struct {
	packageType Format
	skipTypes   bool
	ignored     *set.Set[string]
}

func (x *extractor) walk(m ConditionMapExport, exportKey string, conditions []string, ignored bool) (outputs []OutputDescriptor) {
	for _, key := range m.Keys {
		// skip `./package.json` and friends
		if strings.HasSuffix(key, ".json") {
			continue
		}

		branchExportKey := exportKey
		condition := ""
		switch {
		case isArrayIndex(key):
			// fallback arrays share the enclosing export key and condition
		case key == "." || strings.HasPrefix(key, "./"):
			branchExportKey = normalizeExportKey(key)
		default:
			if x.skipTypes && isTypesCondition(key) {
				continue
			}
			condition = key
		}
		branchIgnored := ignored || x.ignored.Has(strings.TrimPrefix(key, "./"))

		switch v := m.Values[key].(type) {
		case StringExport:
			subKey, ancestors := condition, conditions
			if subKey == "" && len(conditions) > 0 {
				subKey, ancestors = conditions[len(conditions)-1], conditions[:len(conditions)-1]
			}
			outputs = append(outputs, OutputDescriptor{
				File:       v.Path,
				Key:        KeyExports,
				SubKey:     subKey,
				Conditions: cloneStrings(ancestors),
				ExportKey:  branchExportKey,
				Type:       InferType(subKey, ancestors, x.packageType, v.Path),
				Ignored:    branchIgnored,
			})
		case ConditionMapExport:
			branchConditions := conditions
			if condition != "" {
				branchConditions = append(cloneStrings(conditions), condition)
			}
			outputs = append(outputs, x.walk(v, branchExportKey, branchConditions, branchIgnored)...)
		}
	}
	return
}

func normalizeExportKey(key string) string {
	if key == "." {
		return key
	}
	return strings.TrimPrefix(key, "./")
}

func isTypesCondition(condition string) bool {
	return condition == "types" || strings.HasPrefix(condition, "types@")
}

func isArrayIndex(key string) bool {
	_, err := strconv.Atoi(key)
	return err == nil
}

func cloneStrings(a []string) []string {
	if len(a) == 0 {
		return nil
	}
	return append([]string(nil), a...)
}
