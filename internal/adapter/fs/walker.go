package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"reforma/internal/port"
)

// Walker collects knowledge-base documents under a root directory.
type Walker struct {
	includes   []string
	excludes   []string
	extension  string
	categories map[string]bool
}

func NewWalker(includes, excludes []string, extension string, categories []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	var cats map[string]bool
	if len(categories) > 0 {
		cats = make(map[string]bool, len(categories))
		for _, c := range categories {
			cats[c] = true
		}
	}
	return &Walker{
		includes:   includes,
		excludes:   excludes,
		extension:  extension,
		categories: cats,
	}
}

type FileInfo = port.FileInfo

// Walk returns matching files in lexical order.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	var files []FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath == "." {
				return nil
			}
			if strings.HasPrefix(info.Name(), ".") || w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			if w.categories != nil && !strings.Contains(relPath, "/") && !w.categories[relPath] {
				return filepath.SkipDir
			}
			return nil
		}

		if w.extension != "" && !strings.EqualFold(filepath.Ext(path), w.extension) {
			return nil
		}

		category := categoryOf(relPath)
		if w.categories != nil && !w.categories[category] {
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, FileInfo{
				Path:     path,
				RelPath:  relPath,
				Category: category,
				ModTime:  info.ModTime().Unix(),
				Size:     info.Size(),
			})
		}

		return nil
	})

	return files, err
}

func categoryOf(relPath string) string {
	if i := strings.Index(relPath, "/"); i > 0 {
		return relPath[:i]
	}
	return ""
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
