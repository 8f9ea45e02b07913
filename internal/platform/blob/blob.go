// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob provides the asset store used for cover images, page images,
and per-language narration audio.

Assets are addressed by a slash-separated relative path such as
"storybooks/covers/0192f3c1-...-the-clever-crow.png". The path is what the
database stores and what clients receive.

Backends:

  - [LocalStore]: files under a root directory (development, single node).
  - [GCSStore]: objects in a Google Cloud Storage bucket.

Deleting a path that does not exist is not an error on any backend.
*/
package blob

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/taibuivan/storybook/pkg/slug"
	"github.com/taibuivan/storybook/pkg/uuid"
)

// ErrInvalidPath is returned for empty, absolute, or escaping asset paths.
var ErrInvalidPath = errors.New("blob: invalid asset path")

// File is an uploaded file held in memory until it is validated and stored.
type File struct {
	// Name is the client-supplied filename. Only its stem is reused, slugged.
	Name string
	// Content is the raw file body.
	Content []byte
}

// Size returns the content length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Content))
}

// MIME sniffs the content type from the file body, ignoring the filename.
func (f *File) MIME() *mimetype.MIME {
	return mimetype.Detect(f.Content)
}

// Object describes a stored asset, as returned by [Store.List].
type Object struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is the asset store contract consumed by the storybook domain.
type Store interface {

	/*
		Put writes the file under directory and returns its generated path.

		Parameters:
		  - context: context.Context
		  - directory: string (e.g. "storybooks/covers")
		  - file: *File

		Returns:
		  - string: Relative path of the new asset
		  - error: Write failures
	*/
	Put(context context.Context, directory string, file *File) (string, error)

	/*
		Delete removes the asset at path. A missing asset is not an error.
	*/
	Delete(context context.Context, path string) error

	/*
		List returns every asset whose path starts with prefix.
	*/
	List(context context.Context, prefix string) ([]Object, error)
}

// maxNameHint bounds the readable part of a generated object name.
const maxNameHint = 48

// ObjectName builds a collision-free object name for an upload.
//
// The name is a UUIDv7 followed by the slugged original stem, with the
// extension taken from the sniffed content type.
func ObjectName(file *File) string {
	extension := file.MIME().Extension()
	if extension == "" {
		extension = strings.ToLower(filepath.Ext(file.Name))
	}

	stem := strings.TrimSuffix(filepath.Base(file.Name), filepath.Ext(file.Name))
	name := uuid.New()
	if slugged := slug.Limit(slug.From(stem), maxNameHint); slugged != "" {
		name += "-" + slugged
	}

	return name + extension
}

// CleanPath normalizes an asset path and rejects anything outside the store root.
func CleanPath(assetPath string) (string, error) {
	if assetPath == "" || strings.HasPrefix(assetPath, "/") || strings.Contains(assetPath, "\\") {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(assetPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}
