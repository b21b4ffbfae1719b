// Package storage provides the local file layer shared by the persisted stores:
// documents-directory resolution, atomic writes and moves, and a serial I/O queue.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// ErrInvalidName is returned when a filename would escape the documents directory.
var ErrInvalidName = errors.New("invalid file name")

// Documents resolves and manipulates files inside a single documents directory.
type Documents struct {
	dir string
}

// NewDocuments creates the directory if needed and returns a Documents rooted at it.
func NewDocuments(dir string) (*Documents, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve documents dir: %w", err)
	}
	return &Documents{dir: abs}, nil
}

// Dir returns the absolute documents directory.
func (d *Documents) Dir() string {
	return d.dir
}

// URL returns the absolute path of name inside the documents directory.
func (d *Documents) URL(name string) string {
	return filepath.Join(d.dir, name)
}

func (d *Documents) checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ReadFile returns the contents of name. A missing file yields os.ErrNotExist.
func (d *Documents) ReadFile(name string) ([]byte, error) {
	if err := d.checkName(name); err != nil {
		return nil, err
	}
	return os.ReadFile(d.URL(name))
}

// WriteFile atomically replaces name with data (temp file + rename).
func (d *Documents) WriteFile(name string, data []byte) error {
	if err := d.checkName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, d.URL(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Remove deletes name. Missing files are not an error.
func (d *Documents) Remove(name string) error {
	if err := d.checkName(name); err != nil {
		return err
	}
	if err := os.Remove(d.URL(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Exists reports whether name is present in the documents directory.
func (d *Documents) Exists(name string) bool {
	if d.checkName(name) != nil {
		return false
	}
	_, err := os.Stat(d.URL(name))
	return err == nil
}

// MoveIntoPlace moves src into the documents directory as name and returns the final path.
// An existing file with the same name is replaced. Moves across filesystems fall back
// to copy, sync and remove.
func (d *Documents) MoveIntoPlace(src, name string) (string, error) {
	if err := d.checkName(name); err != nil {
		return "", err
	}
	dst := d.URL(name)

	err := os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return "", fmt.Errorf("move %s: %w", name, err)
	}

	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("move %s: %w", name, err)
	}
	_ = os.Remove(src)
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy content: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	return os.Rename(tmp, dst)
}
