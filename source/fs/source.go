// Package fs provides a file source for bindings and configuration files.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yacchi/bindwatch/source"
)

type lockFile interface {
	Stat() (os.FileInfo, error)
	ReadAt(p []byte, off int64) (n int, err error)
	Close() error
	Fd() uintptr
}

type tempFile interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
	Name() string
}

var (
	userHomeDir  = os.UserHomeDir
	osStat       = os.Stat
	osMkdirAll   = os.MkdirAll
	osChmod      = os.Chmod
	osRename     = os.Rename
	osRemove     = os.Remove
	fileLockFunc = fileLock

	openFile = func(name string, flag int, perm os.FileMode) (lockFile, error) {
		return os.OpenFile(name, flag, perm)
	}
	createTemp = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
)

// fileLock locks fd and returns the release function. When the filesystem
// does not support locking the operation proceeds unlocked.
func fileLock(fd int, exclusive bool) (unlock func(), err error) {
	if err := flock(fd, exclusive); err != nil {
		if isLockNotSupportedError(err) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { flockUnlock(fd) }, nil
}

// Default permission modes.
const (
	DefaultFileMode = 0644
	DefaultDirMode  = 0755
)

const tempPattern = ".bindwatch-*.tmp"

// Source reads and writes a single file.
type Source struct {
	path         string
	searchPaths  []string
	resolvedPath string
	fileMode     os.FileMode
	dirMode      os.FileMode
}

var (
	_ source.Source  = (*Source)(nil)
	_ source.Locator = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// WithFileMode sets the permission mode used when saving. Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.fileMode = mode
	}
}

// WithDirMode sets the mode used when creating parent directories. Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.dirMode = mode
	}
}

// WithSearchPaths adds fallback locations. Load uses the first existing file
// among the primary path and the search paths, in that order.
func WithSearchPaths(paths ...string) Option {
	return func(s *Source) {
		s.searchPaths = append(s.searchPaths, paths...)
	}
}

// New creates a file source. A leading "~" expands to the home directory.
//
// Example:
//
//	src := fs.New("~/AppData/Local/Frontier Developments/Elite Dangerous/Options/Bindings/Custom.4.0.binds")
//	src := fs.New("Custom.4.0.binds", fs.WithSearchPaths("/srv/binds/Custom.4.0.binds"))
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:     path,
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary path as given to New.
func (s *Source) Path() string {
	return s.path
}

// Load reads the resolved file under a shared lock so that a concurrent
// Save is never observed half-written.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolvedPath, originalPath, err := s.resolvePath()
	if err != nil {
		return nil, err
	}

	f, err := openFile(resolvedPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", originalPath, err)
	}
	defer f.Close()

	unlock, err := fileLockFunc(int(f.Fd()), false)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %q: %w", resolvedPath, err)
	}
	defer unlock()

	data, err := readAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", originalPath, err)
	}

	s.resolvedPath = resolvedPath
	return data, nil
}

// Save replaces the file atomically (temp file + rename) while holding an
// exclusive lock. Parent directories are created as needed.
func (s *Source) Save(ctx context.Context, update source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetPath := s.resolvedPath
	if targetPath == "" {
		var err error
		targetPath, _, err = s.resolvePath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(targetPath)
	if err := osMkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	f, err := openFile(targetPath, os.O_RDWR|os.O_CREATE, s.fileMode)
	if err != nil {
		return fmt.Errorf("failed to open file %q for locking: %w", targetPath, err)
	}
	defer f.Close()

	unlock, err := fileLockFunc(int(f.Fd()), true)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %q: %w", targetPath, err)
	}
	defer unlock()

	current, err := readAll(f)
	if err != nil {
		return fmt.Errorf("failed to read current file %q: %w", targetPath, err)
	}

	data, err := update(current)
	if err != nil {
		return err
	}

	tmp, err := createTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			osRemove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := osChmod(tmpPath, s.fileMode); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := osRename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %q: %w", targetPath, err)
	}

	s.resolvedPath = targetPath
	success = true
	return nil
}

// CanSave returns true.
func (s *Source) CanSave() bool {
	return true
}

// ResolvedPath returns the file Load last read, or the expanded primary path
// before the first Load.
func (s *Source) ResolvedPath() string {
	if s.resolvedPath != "" {
		return s.resolvedPath
	}
	if resolved, _, err := s.resolvePath(); err == nil {
		return resolved
	}
	return s.path
}

// resolvePath returns the first existing file among the primary and search
// paths, falling back to the expanded primary path.
func (s *Source) resolvePath() (expanded string, original string, err error) {
	all := make([]string, 0, 1+len(s.searchPaths))
	all = append(all, s.path)
	all = append(all, s.searchPaths...)

	for _, p := range all {
		expanded, err := expandTilde(p)
		if err != nil {
			continue
		}
		if _, statErr := osStat(expanded); statErr == nil {
			return expanded, p, nil
		}
	}

	expanded, err = expandTilde(s.path)
	if err != nil {
		return "", s.path, fmt.Errorf("failed to expand path %q: %w", s.path, err)
	}
	return expanded, s.path, nil
}

func readAll(f lockFile) ([]byte, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return nil, nil
	}
	data := make([]byte, stat.Size())
	n, err := f.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}

// expandTilde expands "~" and "~/path". Other forms such as "~user" are
// returned unchanged.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}
	if len(path) == 1 {
		return homeDir, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
