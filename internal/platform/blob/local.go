// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps assets as files below a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a [LocalStore].
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: failed to create root %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory served as the public asset root.
func (store *LocalStore) Root() string {
	return store.root
}

// Put writes the file atomically via a temporary file and rename.
func (store *LocalStore) Put(context context.Context, directory string, file *File) (string, error) {
	if err := context.Err(); err != nil {
		return "", err
	}

	directory, err := CleanPath(directory)
	if err != nil {
		return "", err
	}

	assetPath := path.Join(directory, ObjectName(file))
	target := filepath.Join(store.root, filepath.FromSlash(assetPath))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("blob: failed to create directory: %w", err)
	}

	temporary, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blob: failed to create temp file: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(file.Content); err != nil {
		_ = temporary.Close()
		return "", fmt.Errorf("blob: failed to write %s: %w", assetPath, err)
	}

	if err := temporary.Close(); err != nil {
		return "", fmt.Errorf("blob: failed to close %s: %w", assetPath, err)
	}

	if err := os.Rename(temporary.Name(), target); err != nil {
		return "", fmt.Errorf("blob: failed to move %s into place: %w", assetPath, err)
	}

	return assetPath, nil
}

// Delete removes the file at assetPath; a missing file is ignored.
func (store *LocalStore) Delete(context context.Context, assetPath string) error {
	if err := context.Err(); err != nil {
		return err
	}

	cleaned, err := CleanPath(assetPath)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(store.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: failed to delete %s: %w", cleaned, err)
	}

	return nil
}

// List walks the tree under prefix. Temporary upload files are skipped.
func (store *LocalStore) List(context context.Context, prefix string) ([]Object, error) {
	cleaned, err := CleanPath(prefix)
	if err != nil {
		return nil, err
	}

	start := filepath.Join(store.root, filepath.FromSlash(cleaned))
	var objects []Object

	err = filepath.WalkDir(start, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := context.Err(); err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".upload-") {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(store.root, current)
		if err != nil {
			return err
		}

		objects = append(objects, Object{
			Path:    filepath.ToSlash(relative),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blob: failed to list %s: %w", cleaned, err)
	}

	return objects, nil
}
