// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
)

func init() {
	filestore.Providers.Register("filesystem", func(_ context.Context, params map[string]string) (filestore.FileStore, error) {
		return New(params["base_dir"])
	})
}

// compile-time checks
var (
	_ filestore.FileStore = (*Store)(nil)
	_ filestore.Locator   = (*Store)(nil)
)

// fileMetadata is the on-disk representation stored in the sidecar.
type fileMetadata struct {
	Name      string    `json:"name"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implements filestore.FileStore backed by a local directory.
//
// Layout:
//
//	<baseDir>/<name>             raw upload bytes
//	<baseDir>/.<name>.meta.json  JSON metadata sidecar
//
// Saves are serialized so content and sidecar always describe the same upload.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// New creates a filesystem-backed Store, creating baseDir if it does not exist.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("filesystem filestore: base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Path returns where the slot's content lives on disk. The file may not exist yet.
func (s *Store) Path(name string) (string, error) {
	if err := filestore.CheckName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, name), nil
}

func (s *Store) metadataPath(name string) string {
	return filepath.Join(s.baseDir, "."+name+".meta.json")
}

// Save writes the content and metadata, replacing any previous upload.
func (s *Store) Save(_ context.Context, upload *filestore.Upload) error {
	contentPath, err := s.Path(upload.Name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(contentPath, upload.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	meta := fileMetadata{
		Name:      upload.Name,
		Filename:  upload.Filename,
		MimeType:  upload.MimeType,
		Bytes:     upload.Bytes,
		CreatedAt: upload.CreatedAt,
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeAtomic(s.metadataPath(upload.Name), metaBytes); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Get returns upload metadata (Content is nil).
func (s *Store) Get(_ context.Context, name string) (*filestore.Upload, error) {
	if err := filestore.CheckName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.metadataPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta fileMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata for %s: %w", name, err)
	}

	return &filestore.Upload{
		Name:      meta.Name,
		Filename:  meta.Filename,
		MimeType:  meta.MimeType,
		Bytes:     meta.Bytes,
		CreatedAt: meta.CreatedAt,
	}, nil
}

// Content returns the raw upload bytes.
func (s *Store) Content(_ context.Context, name string) ([]byte, error) {
	contentPath, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read content: %w", err)
	}
	return data, nil
}

// Delete removes the content and its sidecar.
func (s *Store) Delete(_ context.Context, name string) error {
	contentPath, err := s.Path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(contentPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
		}
		return fmt.Errorf("remove content: %w", err)
	}
	if err := os.Remove(s.metadataPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove metadata: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close(_ context.Context) error {
	return nil
}

// writeAtomic writes data to a uniquely named temp file next to path and
// renames it into place.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
