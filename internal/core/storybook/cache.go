// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import "context"

// # Published Storybook Cache

// Cache holds published storybooks with their pages for the mobile API.
//
// The service treats the cache as best effort. A failing cache never fails a
// request; every mutation invalidates the affected storybook.
type Cache interface {

	// Get returns the cached storybook and whether it was present.
	Get(context context.Context, id string) (*Storybook, bool, error)

	// Set stores a published storybook including its pages.
	Set(context context.Context, storybook *Storybook) error

	// Invalidate drops the cached entry for id. A missing entry is not an error.
	Invalidate(context context.Context, id string) error
}

// NoopCache is used when no cache backend is configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*Storybook, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, *Storybook) error { return nil }

func (NoopCache) Invalidate(context.Context, string) error { return nil }
