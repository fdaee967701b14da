// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
)

func init() {
	filestore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (filestore.FileStore, error) {
		return New(), nil
	})
}

// compile-time check
var _ filestore.FileStore = (*Store)(nil)

// Store is an in-memory upload store. Content does not survive a restart.
type Store struct {
	mu      sync.RWMutex
	uploads map[string]*filestore.Upload
}

// New creates a new in-memory upload store.
func New() *Store {
	return &Store{
		uploads: make(map[string]*filestore.Upload),
	}
}

// Save stores a copy of upload, replacing the slot's previous content.
func (s *Store) Save(_ context.Context, upload *filestore.Upload) error {
	if err := filestore.CheckName(upload.Name); err != nil {
		return err
	}

	cp := *upload
	cp.Content = append([]byte(nil), upload.Content...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[upload.Name] = &cp
	return nil
}

// Get returns upload metadata (Content is nil).
func (s *Store) Get(_ context.Context, name string) (*filestore.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, exists := s.uploads[name]
	if !exists {
		return nil, fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
	}

	cp := *upload
	cp.Content = nil
	return &cp, nil
}

// Content returns the raw upload bytes.
func (s *Store) Content(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, exists := s.uploads[name]
	if !exists {
		return nil, fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
	}
	return upload.Content, nil
}

// Delete empties a slot.
func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.uploads[name]; !exists {
		return fmt.Errorf("slot %s: %w", name, filestore.ErrFileNotFound)
	}
	delete(s.uploads, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
