package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Scanner walks a knowledge base root.
type Scanner struct {
	extensions map[string]struct{}
	sourceDirs []string
}

// New creates a Scanner from opts.
func New(opts Options) *Scanner {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	dirs := opts.SourceDirs
	if len(dirs) == 0 {
		dirs = DefaultSourceDirs
	}

	s := &Scanner{
		extensions: make(map[string]struct{}, len(exts)),
		sourceDirs: append([]string(nil), dirs...),
	}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extensions[ext] = struct{}{}
	}
	return s
}

// Eligible reports whether path has an allowed extension.
func (s *Scanner) Eligible(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SourceDirs returns the absolute source directories under root,
// including ones that do not exist.
func (s *Scanner) SourceDirs(root string) []string {
	dirs := make([]string, len(s.sourceDirs))
	for i, d := range s.sourceDirs {
		dirs[i] = filepath.Join(root, d)
	}
	return dirs
}

// Scan returns every eligible file under root's source directories,
// one directory after another in lexical order. A missing root or
// source directory contributes nothing. Entries that cannot be read
// are skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileInfo, error) {
	absRoot, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	parent := filepath.Dir(absRoot)

	var files []FileInfo
	for _, dir := range s.SourceDirs(absRoot) {
		if !dirExists(dir) {
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if !s.Eligible(path) {
				return nil
			}

			// Symlinks count only when they point at a regular file.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}

			files = append(files, FileInfo{
				Path:    relSlash(parent, path),
				RelPath: relSlash(absRoot, path),
				AbsPath: path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}
	return files, nil
}

// ResolveRoot returns the absolute, symlink-free form of root. A root
// that does not exist is returned in absolute form.
func ResolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Exists reports whether root is an existing directory.
func Exists(root string) bool {
	return dirExists(root)
}

func relSlash(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
