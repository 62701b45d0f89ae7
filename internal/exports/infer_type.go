package exports

import (
	"strings"
)

// Format is the module format of an output.
type Format string

const (
	FormatCJS Format = "cjs"
	FormatESM Format = "esm"
)

// PackageFormat returns the format implied by the package.json `type` field.
func PackageFormat(packageType string) Format {
	if packageType == "module" {
		return FormatESM
	}
	return FormatCJS
}

// PackageType returns the package.json `type` value of a format.
func (f Format) PackageType() string {
	if f == FormatESM {
		return "module"
	}
	return "commonjs"
}

// InferTypeFromFilename returns the format indicated by the file extension,
// ok is false for extensions that work in both formats such as `.js`.
func InferTypeFromFilename(filename string) (f Format, ok bool) {
	switch {
	case strings.HasSuffix(filename, ".mjs"), strings.HasSuffix(filename, ".d.mts"):
		return FormatESM, true
	case strings.HasSuffix(filename, ".cjs"), strings.HasSuffix(filename, ".d.cts"):
		return FormatCJS, true
	}
	return "", false
}

// InferType infers the format of a condition branch. A format-indicative
// filename always wins over the condition names, so `"require": "./x.mjs"`
// is ESM. Otherwise `module` and `import` mean ESM, `require` means CJS, and
// unknown conditions defer to the closest enclosing condition and finally to
// the package type.
func InferType(condition string, ancestors []string, packageType Format, filename string) Format {
	if filename != "" {
		if f, ok := InferTypeFromFilename(filename); ok {
			return f
		}
	}
	for {
		switch condition {
		case "module", "import":
			return FormatESM
		case "require":
			return FormatCJS
		}
		if len(ancestors) == 0 {
			return packageType
		}
		condition, ancestors = ancestors[len(ancestors)-1], ancestors[:len(ancestors)-1]
	}
}
