package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

type sourceFile struct {
	Rel  string
	Path string
}

func shouldSkipDir(name string) bool {
	switch name {
	case ".git", "node_modules", "vendor":
		return true
	default:
		return false
	}
}

// collectSourceFiles walks root and returns the files keep accepts, sorted
// case-insensitively by relative path. Unreadable entries are skipped.
func collectSourceFiles(fs afero.Fs, root string, keep func(path string) bool) ([]sourceFile, error) {
	clean := filepath.Clean(root)
	var out []sourceFile
	err := afero.Walk(fs, clean, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != clean && shouldSkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !keep(path) {
			return nil
		}

		rel, err := filepath.Rel(clean, path)
		if err != nil {
			rel = path
		}
		out = append(out, sourceFile{
			Rel:  filepath.ToSlash(rel),
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Rel) < strings.ToLower(out[j].Rel)
	})
	return out, nil
}
