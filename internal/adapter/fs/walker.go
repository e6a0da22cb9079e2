package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"deckqa/internal/port"
)

// Walker resolves build arguments into document paths. Directories are
// filtered with the include/exclude patterns; explicitly named files are
// always kept.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Expand resolves files, directories and doublestar globs, in argument
// order, without duplicates. A path that does not exist is passed through
// so the extractor can report it against that one document.
func (w *Walker) Expand(args []string) ([]port.FileInfo, error) {
	var files []port.FileInfo
	seen := make(map[string]bool)

	add := func(fi port.FileInfo) {
		key := filepath.Clean(fi.Path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, fi)
	}

	addPath := func(path string) error {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				add(port.FileInfo{Path: path})
				return nil
			}
			return err
		}
		if !info.IsDir() {
			add(fileInfo(path, info))
			return nil
		}
		walked, err := w.Walk(path)
		if err != nil {
			return err
		}
		for _, fi := range walked {
			add(fi)
		}
		return nil
	}

	for _, arg := range args {
		if !hasMeta(arg) {
			if err := addPath(arg); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			if err := addPath(m); err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

// Walk returns the matching files under root in lexical order.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, fileInfo(path, info))
		}

		return nil
	})

	return files, err
}

func (w *Walker) shouldInclude(path string) bool {
	return matchAny(w.includes, path)
}

func (w *Walker) shouldExclude(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func hasMeta(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func fileInfo(path string, info os.FileInfo) port.FileInfo {
	return port.FileInfo{
		Path:    path,
		ModTime: info.ModTime().Unix(),
		Size:    info.Size(),
	}
}
