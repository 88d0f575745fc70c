package keybackend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mitchellh/go-homedir"
)

// FileSource reads a private key from a file on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for path. A leading "~" is expanded to the
// user's home directory when the key is read.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// ReadKey implements manta.KeySource.
func (s *FileSource) ReadKey() ([]byte, error) {
	path, err := homedir.Expand(s.Path)
	if err != nil {
		return nil, fmt.Errorf("expand key path: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read key file %s: %w", path, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

// FSSource reads a private key from a file system, typically one packaged
// with the program.
type FSSource struct {
	FS   fs.FS
	Name string
}

// NewFSSource creates a source for name inside fsys.
func NewFSSource(fsys fs.FS, name string) *FSSource {
	return &FSSource{FS: fsys, Name: name}
}

// ReadKey implements manta.KeySource.
func (s *FSSource) ReadKey() ([]byte, error) {
	data, err := fs.ReadFile(s.FS, s.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read key resource %s: %w", s.Name, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("read key resource: %w", err)
	}
	return data, nil
}

// StaticSource serves key material held in memory.
type StaticSource struct {
	pem []byte
}

// NewStaticSource creates a source that returns a copy of pem on every read.
func NewStaticSource(pem []byte) *StaticSource {
	return &StaticSource{pem: append([]byte(nil), pem...)}
}

// ReadKey implements manta.KeySource.
func (s *StaticSource) ReadKey() ([]byte, error) {
	if len(s.pem) == 0 {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), s.pem...), nil
}
