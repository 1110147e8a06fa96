package imagecull

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Walker enumerates class subfolders under Root and the image files directly
// inside each. It holds no state between calls; every listing reads the
// filesystem afresh so files moved by an earlier stage are simply absent.
type Walker struct {
	Root       string
	Exclude    string   // quarantine subtree; never descended into
	Extensions []string // lowercase, with leading dot
	Logger     *slog.Logger
}

// HasImageExt reports whether name ends in one of exts (case-insensitive).
func HasImageExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ClassDirs returns every directory below Root, in lexical walk order, that is
// not the quarantine subtree or hidden. The root itself is not a class folder.
func (w *Walker) ClassDirs() []string {
	var dirs []string
	exclude := filepath.Clean(w.Exclude)

	_ = filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger().Warn("imagecull: unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() && path != w.Root {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == w.Root {
			return nil
		}
		if filepath.Clean(path) == exclude || strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})

	return dirs
}

// ImageFiles lists regular files directly inside dir whose extension is an
// image extension, sorted by name.
func (w *Walker) ImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger().Warn("imagecull: list folder", "dir", dir, "error", err)
		if len(entries) == 0 {
			return nil
		}
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !HasImageExt(e.Name(), w.Extensions) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files
}

// Each calls fn for every image file in every class folder, in walk order.
// It stops early when fn returns false.
func (w *Walker) Each(fn func(dir, path string) bool) {
	for _, dir := range w.ClassDirs() {
		for _, path := range w.ImageFiles(dir) {
			if !fn(dir, path) {
				return
			}
		}
	}
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
