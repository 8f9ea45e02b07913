// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package language

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	requestutil "github.com/taibuivan/storybook/internal/platform/request"
	"github.com/taibuivan/storybook/internal/platform/respond"
)

// Handler serves the read-only language catalogue.
type Handler struct{}

// NewHandler constructs a language [Handler].
func NewHandler() *Handler {
	return &Handler{}
}

// Routes returns a [chi.Router] with the catalogue endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listLanguages)
	router.Get("/{code}", handler.getLanguage)
	return router
}

/*
GET /api/languages.

Response:
  - 200: []Info
*/
func (handler *Handler) listLanguages(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, Catalogue())
}

/*
GET /api/languages/{code}.

Response:
  - 200: Info
  - 404: Language not found
*/
func (handler *Handler) getLanguage(writer http.ResponseWriter, request *http.Request) {
	code := Code(requestutil.ID(request, "code"))
	if !code.IsValid() {
		respond.Error(writer, request, apperr.NotFound("Language"))
		return
	}

	respond.OK(writer, Describe(code))
}
