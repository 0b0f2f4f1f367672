// Package store keeps the MMU's persistent settings and counters in a
// YAML file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File is a key/value store backed by a YAML document. Writes are only
// accepted between BeginAccess and EndAccess and reach the disk on Commit.
type File struct {
	path string

	mx     sync.Mutex
	values map[string]uint32
	depth  int
	dirty  bool
}

// Open loads path. A missing file is an empty store.
func Open(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]uint32)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.values == nil {
		f.values = make(map[string]uint32)
	}
	return f, nil
}

func (f *File) BeginAccess() {
	f.mx.Lock()
	f.depth++
	f.mx.Unlock()
}

func (f *File) EndAccess() {
	f.mx.Lock()
	if f.depth > 0 {
		f.depth--
	}
	f.mx.Unlock()
}

func (f *File) ReadUint32(key string) (uint32, bool) {
	f.mx.Lock()
	defer f.mx.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) WriteUint32(key string, v uint32) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.depth == 0 {
		log.Printf("ERROR: store: write of %s outside of an access block", key)
		return
	}
	if old, ok := f.values[key]; ok && old == v {
		return
	}
	f.values[key] = v
	f.dirty = true
}

// Commit writes the store to disk if anything changed since the last
// commit. The file is replaced atomically.
func (f *File) Commit() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if !f.dirty {
		return nil
	}

	data, err := yaml.Marshal(f.values)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return err
	}
	f.dirty = false
	return nil
}
