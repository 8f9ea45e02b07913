// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	stdctx "context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	// gcsWriteTimeout bounds a single object upload.
	gcsWriteTimeout = 2 * time.Minute
	// gcsListTimeout bounds a full prefix listing.
	gcsListTimeout = 60 * time.Second
)

// GCSStore keeps assets as objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore dials Cloud Storage for the given bucket.
//
// When emulatorHost is set the client talks to a local emulator without
// credentials; otherwise application default credentials are used.
func NewGCSStore(context stdctx.Context, bucket, emulatorHost string) (*GCSStore, error) {
	options := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}

	if emulatorHost != "" {
		// The storage client reads STORAGE_EMULATOR_HOST itself.
		if err := os.Setenv("STORAGE_EMULATOR_HOST", emulatorHost); err != nil {
			return nil, fmt.Errorf("blob: failed to configure emulator: %w", err)
		}
		options = []option.ClientOption{option.WithoutAuthentication()}
	}

	client, err := storage.NewClient(context, options...)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying storage client.
func (store *GCSStore) Close() error {
	return store.client.Close()
}

// Put uploads the file and returns its object name.
func (store *GCSStore) Put(context stdctx.Context, directory string, file *File) (string, error) {
	directory, err := CleanPath(directory)
	if err != nil {
		return "", err
	}

	objectName := path.Join(directory, ObjectName(file))

	writeCtx, cancel := stdctx.WithTimeout(context, gcsWriteTimeout)
	defer cancel()

	writer := store.client.Bucket(store.bucket).Object(objectName).NewWriter(writeCtx)
	writer.ContentType = file.MIME().String()

	if _, err := writer.Write(file.Content); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("blob: failed to write %s to GCS: %w", objectName, err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("blob: failed to close GCS writer for %s: %w", objectName, err)
	}

	return objectName, nil
}

// Delete removes the object; a missing object is ignored.
func (store *GCSStore) Delete(context stdctx.Context, assetPath string) error {
	objectName, err := CleanPath(assetPath)
	if err != nil {
		return err
	}

	err = store.client.Bucket(store.bucket).Object(objectName).Delete(context)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("blob: failed to delete %s from GCS: %w", objectName, err)
	}

	return nil
}

// List iterates every object under prefix.
func (store *GCSStore) List(context stdctx.Context, prefix string) ([]Object, error) {
	cleaned, err := CleanPath(prefix)
	if err != nil {
		return nil, err
	}

	listCtx, cancel := stdctx.WithTimeout(context, gcsListTimeout)
	defer cancel()

	objectIterator := store.client.Bucket(store.bucket).Objects(listCtx, &storage.Query{Prefix: cleaned + "/"})

	var objects []Object
	for {
		attributes, err := objectIterator.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("blob: failed to list %s in GCS: %w", cleaned, err)
		}

		objects = append(objects, Object{
			Path:    attributes.Name,
			Size:    attributes.Size,
			ModTime: attributes.Updated,
		})
	}

	return objects, nil
}
