package entry

import (
	"path"
	"strings"

	"github.com/visulima/packem-sub001/internal/config"
	"github.com/visulima/packem-sub001/internal/exports"
)

var runtimeConventions = []config.Runtime{
	config.RuntimeReactServer,
	config.RuntimeReactNative,
	config.RuntimeEdgeLight,
}

// special conventions are built from a shared source under another name
var specialConventions = []string{
	string(config.EnvironmentDevelopment),
	string(config.EnvironmentProduction),
	string(config.RuntimeReactServer),
	string(config.RuntimeReactNative),
	string(config.RuntimeEdgeLight),
}

var declarationExts = []string{".d.ts", ".d.mts", ".d.cts"}

func isRuntimeConvention(condition string) bool {
	for _, rt := range runtimeConventions {
		if condition == string(rt) {
			return true
		}
	}
	return false
}

func isSpecialConvention(output exports.OutputDescriptor) bool {
	for _, condition := range conditionsOf(output) {
		for _, c := range specialConventions {
			if condition == c {
				return true
			}
		}
	}
	return false
}

// conditionsOf returns the conditions of an output, closest first.
func conditionsOf(output exports.OutputDescriptor) []string {
	conditions := make([]string, 0, len(output.Conditions)+1)
	if output.SubKey != "" {
		conditions = append(conditions, output.SubKey)
	}
	for i := len(output.Conditions) - 1; i >= 0; i-- {
		conditions = append(conditions, output.Conditions[i])
	}
	return conditions
}

// stripConvention removes a trailing special convention such as
// `.production` from the slug, it returns an empty string if the slug has
// none.
func stripConvention(slug string) string {
	for _, c := range specialConventions {
		if s, ok := strings.CutSuffix(slug, "."+c); ok && s != "" {
			return s
		}
	}
	return ""
}

// outputSlugOf strips the leading `./` and the extension of a declared
// output, a `*` wildcard is kept.
func outputSlugOf(file string) string {
	slug := strings.TrimPrefix(file, "./")
	if slug == "" || strings.HasSuffix(slug, "/") {
		return slug
	}
	dir, base := path.Split(slug)
	for _, ext := range declarationExts {
		if strings.HasSuffix(base, ext) {
			return dir + strings.TrimSuffix(base, ext)
		}
	}
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 && isWord(base[dot+1:]) {
		return dir + base[:dot]
	}
	return slug
}

// trimExtension removes the extension of a file path, directories are
// returned unchanged.
func trimExtension(filename string) string {
	if strings.HasSuffix(filename, "/") {
		return filename
	}
	dir, base := path.Split(filename)
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		return dir + base[:dot]
	}
	return filename
}

func isDeclarationFile(filename string) bool {
	for _, ext := range declarationExts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

func isTypeScriptFile(filename string) bool {
	switch path.Ext(filename) {
	case ".ts", ".cts", ".mts", ".tsx":
		return true
	}
	return false
}

// isPrivatePath returns true if any segment of the path starts with `_`.
func isPrivatePath(p string) bool {
	return strings.HasPrefix(p, "_") || strings.Contains(p, "/_")
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
