// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/constants"
	requestutil "github.com/taibuivan/storybook/internal/platform/request"
	"github.com/taibuivan/storybook/internal/platform/respond"
	"github.com/taibuivan/storybook/pkg/pagination"
)

// # Mobile Handler

// MobileHandler serves the read-only reader API. Only published storybooks are visible.
type MobileHandler struct {
	service *Service
}

// NewMobileHandler constructs a [MobileHandler].
func NewMobileHandler(service *Service) *MobileHandler {
	return &MobileHandler{service: service}
}

// Routes returns a [chi.Router] configured with the mobile endpoints.
func (handler *MobileHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listStorybooks)
	router.With(requireValidIDs).Get("/{storybookID}", handler.getStorybook)

	return router
}

/*
GET /api/storybooks.

Description: Published storybooks with their pages, in insertion order.

Request:
  - language: string (Membership in the storybook languages)
  - age_group: string (Exact match)
  - search: string (Title or author, case-insensitive)
  - page: int

Response:
  - 200: []Storybook (20 per page)
*/
func (handler *MobileHandler) listStorybooks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.Fixed(request, constants.MobilePageSize)

	storybooks, total, err := handler.service.ListPublic(
		request.Context(),
		filterFromQuery(request),
		paginationParams.Limit,
		paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	meta := pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total).WithLinks(request.URL)
	respond.Paginated(writer, storybooks, meta)
}

/*
GET /api/storybooks/{storybookID}.

Description: With a language, each page is flattened to that language's
text and audio. Missing content in that language is returned as null.

Request:
  - language: string (Optional)

Response:
  - 200: Storybook
  - 404: Missing or not published
*/
func (handler *MobileHandler) getStorybook(writer http.ResponseWriter, request *http.Request) {
	storybook, err := handler.service.GetPublished(request.Context(), requestutil.ID(request, "storybookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	code := language.Normalize(request.URL.Query().Get("language"))
	if code == "" {
		respond.OK(writer, storybook)
		return
	}

	respond.OK(writer, LocalizeStorybook(storybook, code))
}
