// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/middleware"
	requestutil "github.com/taibuivan/storybook/internal/platform/request"
	"github.com/taibuivan/storybook/internal/platform/respond"
	"github.com/taibuivan/storybook/pkg/pagination"
	"github.com/taibuivan/storybook/pkg/uuid"
)

// # Editor Handler

// Handler implements the editor surface: storybook and page management.
// Reads of published storybooks are open; everything else requires a session.
type Handler struct {
	service *Service
}

// NewHandler constructs an editor [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the editor endpoints.
//
// # Routing Strategy
//
//   - Browsing (Public): Index and detail, limited to published storybooks for anonymous viewers.
//   - Management (Restricted): Every write and every page endpoint requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Browsing
	router.Get("/", handler.listStorybooks)
	router.With(requireValidIDs).Get("/{storybookID}", handler.getStorybook)

	// ## Management
	router.Group(func(editor chi.Router) {
		editor.Use(middleware.RequireAuth)
		editor.Use(requireValidIDs)

		editor.Post("/", handler.createStorybook)
		editor.Put("/{storybookID}", handler.updateStorybook)
		editor.Patch("/{storybookID}", handler.updateStorybook)
		editor.Delete("/{storybookID}", handler.deleteStorybook)

		// Pages
		editor.Get("/{storybookID}/pages", handler.listPages)
		editor.Get("/{storybookID}/pages/next-number", handler.nextPageNumber)
		editor.Post("/{storybookID}/pages", handler.createPage)
		editor.Get("/{storybookID}/pages/{pageID}", handler.getPage)
		editor.Put("/{storybookID}/pages/{pageID}", handler.updatePage)
		editor.Patch("/{storybookID}/pages/{pageID}", handler.updatePage)
		editor.Delete("/{storybookID}/pages/{pageID}", handler.deletePage)
	})

	return router
}

// requireValidIDs answers 404 for path identifiers that are not UUIDs, so
// malformed IDs never reach a typed UUID column.
func requireValidIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if id := chi.URLParam(request, "storybookID"); id != "" && !uuid.IsValid(id) {
			respond.Error(writer, request, apperr.NotFound("Storybook"))
			return
		}
		if id := chi.URLParam(request, "pageID"); id != "" && !uuid.IsValid(id) {
			respond.Error(writer, request, apperr.NotFound("Page"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// # Storybook Endpoints

/*
GET /storybooks.

Description: Editor index, newest first. Anonymous viewers only see published storybooks.

Request:
  - status: string (Authenticated viewers only)
  - language: string
  - age_group: string
  - search: string
  - page: int

Response:
  - 200: []Storybook (12 per page)
*/
func (handler *Handler) listStorybooks(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.Fixed(request, constants.EditorPageSize)
	filter := filterFromQuery(request)

	if status := Status(request.URL.Query().Get("status")); status.IsValid() {
		filter.Status = []Status{status}
	}

	storybooks, total, err := handler.service.ListForViewer(
		request.Context(),
		requestutil.IsAuthenticated(request),
		filter,
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
GET /storybooks/{storybookID}.

Response:
  - 200: Storybook (with pages)
  - 404: Missing, or not published for anonymous viewers
*/
func (handler *Handler) getStorybook(writer http.ResponseWriter, request *http.Request) {
	storybook, err := handler.service.GetForViewer(
		request.Context(),
		requestutil.IsAuthenticated(request),
		requestutil.ID(request, "storybookID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, storybook)
}

/*
POST /storybooks.

Description: Accepts multipart/form-data (with an optional cover_image file)
or a JSON body without files.

Response:
  - 201: Storybook
  - 400: Validation failed
  - 500: Cover could not be stored
*/
func (handler *Handler) createStorybook(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeStorybookInput(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	storybook, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, storybook)
}

/*
PUT /storybooks/{storybookID}.

Description: Replaces the editable attributes. An omitted status keeps the
current one; an omitted cover keeps the current cover.

Response:
  - 200: Storybook
  - 400: Validation failed
  - 404: Storybook not found
*/
func (handler *Handler) updateStorybook(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeStorybookInput(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	storybook, err := handler.service.Update(request.Context(), requestutil.ID(request, "storybookID"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, storybook)
}

/*
DELETE /storybooks/{storybookID}.

Response:
  - 204: Storybook, pages, and their assets removed
  - 404: Storybook not found
*/
func (handler *Handler) deleteStorybook(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "storybookID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Request Decoding

// storybookRequest is the JSON body of the storybook write endpoints.
type storybookRequest struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Languages   []language.Code `json:"languages"`
	Description *string         `json:"description"`
	Status      Status          `json:"status"`
	AgeGroup    *string         `json:"age_group"`
	Tags        []string        `json:"tags"`
}

func decodeStorybookInput(writer http.ResponseWriter, request *http.Request) (StorybookInput, error) {
	if !requestutil.IsMultipart(request) {
		var body storybookRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			return StorybookInput{}, err
		}

		return StorybookInput{
			Title:       body.Title,
			Author:      body.Author,
			Languages:   body.Languages,
			Description: body.Description,
			Status:      body.Status,
			AgeGroup:    body.AgeGroup,
			Tags:        body.Tags,
		}, nil
	}

	if err := requestutil.ParseMultipart(writer, request); err != nil {
		return StorybookInput{}, err
	}

	title, _ := requestutil.FormValue(request, FieldTitle)
	author, _ := requestutil.FormValue(request, FieldAuthor)
	status, _ := requestutil.FormValue(request, FieldStatus)

	var languages []language.Code
	for _, value := range requestutil.FormValues(request, FieldLanguages) {
		languages = append(languages, language.Code(value))
	}

	cover, err := requestutil.FormFile(request, FieldCoverImage)
	if err != nil {
		return StorybookInput{}, err
	}

	return StorybookInput{
		Title:       title,
		Author:      author,
		Languages:   languages,
		Description: optionalFormValue(request, FieldDescription),
		Status:      Status(status),
		AgeGroup:    optionalFormValue(request, FieldAgeGroup),
		Tags:        splitTags(requestutil.FormValues(request, FieldTags)),
		Cover:       cover,
	}, nil
}

// filterFromQuery reads the listing criteria shared by the editor and mobile indexes.
func filterFromQuery(request *http.Request) Filter {
	query := request.URL.Query()

	return Filter{
		Language: language.Normalize(query.Get("language")),
		AgeGroup: strings.TrimSpace(query.Get("age_group")),
		Search:   strings.TrimSpace(query.Get("search")),
	}
}

func optionalFormValue(request *http.Request, field string) *string {
	value, ok := requestutil.FormValue(request, field)
	if !ok {
		return nil
	}
	return &value
}

// splitTags accepts repeated fields as well as one comma separated value.
func splitTags(values []string) []string {
	var tags []string
	for _, value := range values {
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
