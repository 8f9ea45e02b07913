// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination reads the "page" query parameter of fixed-size
// listings and builds the "meta" block of paginated responses.
//
// Listings choose their own page size (12 for the editor index, 20 for the
// mobile reader, 10 for pages). Clients only pick which page they see.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1

	// MaxPage bounds the requested page so the derived OFFSET cannot overflow.
	MaxPage = 1_000_000
)

// Params holds the parsed page and limit from a request's query string.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Links      *Links `json:"links,omitempty"`
}

// Links holds absolute-path navigation URLs for a paginated response.
// Prev and Next are null at the edges of the result set.
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// WithLinks returns a copy of the metadata carrying first/last/prev/next links
// derived from the request URL. Every other query parameter is preserved.
func (m Meta) WithLinks(current *url.URL) Meta {
	lastPage := m.TotalPages
	if lastPage < 1 {
		lastPage = 1
	}

	links := &Links{
		First: pageURL(current, 1),
		Last:  pageURL(current, lastPage),
	}

	if m.Page > 1 {
		previous := pageURL(current, min(m.Page-1, lastPage))
		links.Prev = &previous
	}

	if m.Page < m.TotalPages {
		next := pageURL(current, m.Page+1)
		links.Next = &next
	}

	m.Links = links
	return m
}

// Fixed parses the "page" query parameter and applies a server-chosen page
// size. A client "limit" is ignored; a missing or malformed page is page 1.
func Fixed(r *http.Request, size int) Params {
	page := parseIntParam(r, "page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	return Params{Page: min(page, MaxPage), Limit: size}
}

func parseIntParam(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return fallback
	}
	return n
}

// pageURL rewrites the "page" query parameter of current.
func pageURL(current *url.URL, page int) string {
	query := current.Query()
	query.Set("page", strconv.Itoa(page))

	target := url.URL{Path: current.Path, RawQuery: query.Encode()}
	return target.String()
}
