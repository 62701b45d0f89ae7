// Package sources lists the source files of a package.
package sources

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// List walks `<rootDir>/<sourceDir>` and returns the absolute slash paths of
// the files and directories found, directories end with `/`. `node_modules`,
// the out directory and paths matching one of the exclude patterns (relative
// to the root directory) are skipped. A missing source directory yields an
// empty list.
func List(rootDir string, sourceDir string, outDir string, exclude []string) ([]string, error) {
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	srcDir := filepath.Join(rootDir, filepath.FromSlash(sourceDir))
	outAbs := filepath.Join(rootDir, filepath.FromSlash(outDir))

	var files []string
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == srcDir && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if p == srcDir {
			return nil
		}
		if d.IsDir() && (d.Name() == "node_modules" || p == outAbs) {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return err
		}
		excluded, err := isExcluded(filepath.ToSlash(rel), exclude)
		if err != nil {
			return err
		}
		if excluded {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := filepath.ToSlash(p)
		if d.IsDir() {
			name += "/"
		}
		files = append(files, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isExcluded(rel string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(strings.TrimPrefix(pattern, "./"), rel)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
