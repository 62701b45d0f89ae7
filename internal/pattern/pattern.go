// Package pattern compiles export subpath slugs such as `src/utils/*` into
// matchers for source file paths.
//
// A pattern is a literal prefix, an optional single `*` wildcard and a literal
// suffix. Matching is anchored at a path separator and requires the file to
// carry one trailing extension made of word characters, so `src/index`
// matches `/pkg/src/index.ts` but neither `/pkg/src/index.d.ts` nor
// `/pkg/xsrc/index.ts`.
package pattern

import (
	"strings"

	"github.com/ije/gox/utils"
)

// Pattern is a compiled subpath pattern.
type Pattern struct {
	prefix   string
	suffix   string
	wildcard bool
}

// Compile compiles the given slug. Only the first `*` is a wildcard, any
// further `*` is matched literally.
func Compile(slug string) Pattern {
	if strings.IndexByte(slug, '*') < 0 {
		return Pattern{prefix: slug}
	}
	prefix, suffix := utils.SplitByFirstByte(slug, '*')
	return Pattern{prefix: prefix, suffix: suffix, wildcard: true}
}

// HasWildcard returns true if the pattern contains a `*`.
func (p Pattern) HasWildcard() bool {
	return p.wildcard
}

// String returns the slug the pattern was compiled from.
func (p Pattern) String() string {
	if p.wildcard {
		return p.prefix + "*" + p.suffix
	}
	return p.prefix
}

// Match matches a file path against the pattern and returns the text captured
// by the wildcard. Directory paths (ending with `/`) never match.
func (p Pattern) Match(filename string) (capture string, ok bool) {
	if strings.HasSuffix(filename, "/") {
		return "", false
	}
	base, ok := stripExtension(filename)
	if !ok {
		return "", false
	}
	if !p.wildcard {
		return "", hasSegmentSuffix(base, p.prefix)
	}
	if !strings.HasSuffix(base, p.suffix) {
		return "", false
	}
	end := len(base) - len(p.suffix)
	// leftmost anchored occurrence of the prefix wins
	for i := 0; i+len(p.prefix) <= end; i++ {
		if (i == 0 || base[i-1] == '/') && strings.HasPrefix(base[i:], p.prefix) {
			return base[i+len(p.prefix) : end], true
		}
	}
	return "", false
}

// MatchDir matches a directory path (ending with `/`) against a literal
// directory slug (also ending with `/`).
func (p Pattern) MatchDir(dirname string) bool {
	if p.wildcard || !strings.HasSuffix(dirname, "/") || !strings.HasSuffix(p.prefix, "/") {
		return false
	}
	return hasSegmentSuffix(dirname, p.prefix)
}

func hasSegmentSuffix(s string, suffix string) bool {
	if suffix == "" || !strings.HasSuffix(s, suffix) {
		return false
	}
	i := len(s) - len(suffix)
	return i == 0 || s[i-1] == '/'
}

// stripExtension removes a trailing `.<word characters>` extension.
func stripExtension(filename string) (string, bool) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 || dot == len(filename)-1 {
		return "", false
	}
	for _, c := range filename[dot+1:] {
		if !isWordChar(c) {
			return "", false
		}
	}
	return filename[:dot], true
}

func isWordChar(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
