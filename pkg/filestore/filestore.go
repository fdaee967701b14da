// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore holds uploaded files in named slots. Saving to a slot
// replaces whatever it held before.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/provider"
)

// ErrFileNotFound is returned when a slot holds no upload.
var ErrFileNotFound = errors.New("file not found")

// Providers is the registry of upload store backends.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/filesystem"
//	import _ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/s3"
var Providers = provider.NewRegistry[FileStore]("file_store")

// Upload is the content of a slot plus what the client told us about it.
type Upload struct {
	Name      string // slot name, e.g. "uploaded_data.csv"
	Filename  string // client-supplied filename
	MimeType  string
	Bytes     int64
	Content   []byte // set on Save input; nil from Get
	CreatedAt time.Time
}

// FileStore defines the interface for pluggable upload storage backends.
type FileStore interface {
	Save(ctx context.Context, upload *Upload) error
	Get(ctx context.Context, name string) (*Upload, error)
	Content(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// Locator is implemented by backends that keep each slot as a local file.
type Locator interface {
	Path(name string) (string, error)
}

// ErrInvalidName is returned for slot names that are not a single path element.
var ErrInvalidName = errors.New("invalid slot name")

// CheckName rejects empty names and names that would escape a base directory.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
