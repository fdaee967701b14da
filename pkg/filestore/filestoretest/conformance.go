// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestoretest provides a shared conformance test suite for
// filestore.FileStore implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package filestoretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
)

func csvUpload(name, content string) *filestore.Upload {
	return &filestore.Upload{
		Name:      name,
		Filename:  "report.csv",
		MimeType:  "text/csv",
		Bytes:     int64(len(content)),
		Content:   []byte(content),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// RunConformanceTests exercises a FileStore implementation against the shared
// contract. The newStore function is called once per sub-test to provide an
// isolated store instance.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) filestore.FileStore) {
	t.Helper()

	t.Run("SaveAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		u := csvUpload("uploaded_data.csv", "fruit,count\napple,3\n")
		if err := store.Save(ctx, u); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := store.Get(ctx, u.Name)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != u.Name || got.Filename != u.Filename || got.MimeType != u.MimeType || got.Bytes != u.Bytes {
			t.Errorf("Get returned unexpected metadata: %+v", got)
		}
		if !got.CreatedAt.Equal(u.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
		}
		if got.Content != nil {
			t.Errorf("expected Content to be nil from Get, got %d bytes", len(got.Content))
		}
	})

	t.Run("Content", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		u := csvUpload("uploaded_data.csv", "a,b\n1,2\n")
		if err := store.Save(ctx, u); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := store.Content(ctx, u.Name)
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if string(got) != "a,b\n1,2\n" {
			t.Errorf("content mismatch: got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if err := store.Save(ctx, csvUpload("uploaded_data.csv", "first,upload\n")); err != nil {
			t.Fatalf("first Save: %v", err)
		}
		second := csvUpload("uploaded_data.csv", "second,upload\nx,1\n")
		second.Filename = "second.csv"
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("second Save: %v", err)
		}

		got, err := store.Content(ctx, "uploaded_data.csv")
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if string(got) != "second,upload\nx,1\n" {
			t.Errorf("expected second upload to replace the first, got %q", got)
		}
		meta, err := store.Get(ctx, "uploaded_data.csv")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if meta.Filename != "second.csv" || meta.Bytes != second.Bytes {
			t.Errorf("metadata not replaced: %+v", meta)
		}
	})

	t.Run("ConcurrentSave", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		const writers = 8
		written := make(map[string]bool, writers)
		uploads := make([]*filestore.Upload, writers)
		for i := range uploads {
			uploads[i] = csvUpload("uploaded_data.csv", fmt.Sprintf("label,value\nwriter,%d\n", i))
			written[string(uploads[i].Content)] = true
		}

		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i, u := range uploads {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = store.Save(ctx, u)
			}()
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Errorf("Save from writer %d: %v", i, err)
			}
		}
		got, err := store.Content(ctx, "uploaded_data.csv")
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if !written[string(got)] {
			t.Errorf("slot holds content no writer saved: %q", got)
		}
		if _, err := store.Get(ctx, "uploaded_data.csv"); err != nil {
			t.Errorf("Get after concurrent saves: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		u := csvUpload("uploaded_data.csv", "a,b\n")
		if err := store.Save(ctx, u); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := store.Delete(ctx, u.Name); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		_, err := store.Get(ctx, u.Name)
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound after delete, got: %v", err)
		}
		_, err = store.Content(ctx, u.Name)
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound for content after delete, got: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		_, err := store.Get(ctx, "empty_slot.csv")
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("Get expected ErrFileNotFound, got: %v", err)
		}

		_, err = store.Content(ctx, "empty_slot.csv")
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("Content expected ErrFileNotFound, got: %v", err)
		}

		err = store.Delete(ctx, "empty_slot.csv")
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("Delete expected ErrFileNotFound, got: %v", err)
		}
	})

	t.Run("InvalidName", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		for _, name := range []string{"", "../escape.csv", "dir/file.csv"} {
			err := store.Save(ctx, csvUpload(name, "a,b\n"))
			if !errors.Is(err, filestore.ErrInvalidName) {
				t.Errorf("Save(%q) expected ErrInvalidName, got: %v", name, err)
			}
		}
	})
}
