// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/constants"
	requestutil "github.com/taibuivan/storybook/internal/platform/request"
	"github.com/taibuivan/storybook/internal/platform/respond"
	"github.com/taibuivan/storybook/internal/platform/validate"
	"github.com/taibuivan/storybook/pkg/pagination"
)

// # Page Endpoints

/*
GET /storybooks/{storybookID}/pages.

Response:
  - 200: []Page ordered by page_number (10 per page)
  - 404: Storybook not found
*/
func (handler *Handler) listPages(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.Fixed(request, constants.EditorPagesPageSize)

	pages, total, err := handler.service.ListPages(
		request.Context(),
		requestutil.ID(request, "storybookID"),
		paginationParams.Limit,
		paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	meta := pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total).WithLinks(request.URL)
	respond.Paginated(writer, pages, meta)
}

/*
GET /storybooks/{storybookID}/pages/next-number.

Description: Suggested number for the page creation form.

Response:
  - 200: {"page_number": int}
*/
func (handler *Handler) nextPageNumber(writer http.ResponseWriter, request *http.Request) {
	number, err := handler.service.NextPageNumber(request.Context(), requestutil.ID(request, "storybookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{FieldPageNumber: number})
}

/*
POST /storybooks/{storybookID}/pages.

Description: Accepts multipart/form-data with text_content[<code>] fields,
an optional image and optional audio_<code> files, or a JSON body without files.

Response:
  - 201: Page
  - 400: Validation failed
  - 409: Page number already used in this storybook
*/
func (handler *Handler) createPage(writer http.ResponseWriter, request *http.Request) {
	input, err := decodePageInput(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.AddPage(request.Context(), requestutil.ID(request, "storybookID"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, page)
}

/*
GET /storybooks/{storybookID}/pages/{pageID}.

Response:
  - 200: Page
  - 404: Page not found in this storybook
*/
func (handler *Handler) getPage(writer http.ResponseWriter, request *http.Request) {
	page, err := handler.service.GetPage(
		request.Context(),
		requestutil.ID(request, "storybookID"),
		requestutil.ID(request, "pageID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

/*
PUT /storybooks/{storybookID}/pages/{pageID}.

Description: Partial update. Omitted fields and files keep their stored values.

Response:
  - 200: Page
  - 400: Validation failed
  - 404: Page not found in this storybook
  - 409: Page number already used in this storybook
*/
func (handler *Handler) updatePage(writer http.ResponseWriter, request *http.Request) {
	input, err := decodePageInput(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.service.UpdatePage(
		request.Context(),
		requestutil.ID(request, "storybookID"),
		requestutil.ID(request, "pageID"),
		input,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

/*
DELETE /storybooks/{storybookID}/pages/{pageID}.

Response:
  - 204: Page and its assets removed
  - 404: Page not found in this storybook
*/
func (handler *Handler) deletePage(writer http.ResponseWriter, request *http.Request) {
	err := handler.service.RemovePage(
		request.Context(),
		requestutil.ID(request, "storybookID"),
		requestutil.ID(request, "pageID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Request Decoding

// pageRequest is the JSON body of the page write endpoints.
type pageRequest struct {
	PageNumber    int                      `json:"page_number"`
	TextContent   map[language.Code]string `json:"text_content"`
	AnimationData json.RawMessage          `json:"animation_data"`
}

func decodePageInput(writer http.ResponseWriter, request *http.Request) (PageInput, error) {
	if !requestutil.IsMultipart(request) {
		var body pageRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			return PageInput{}, err
		}

		return PageInput{
			PageNumber:    body.PageNumber,
			TextContent:   body.TextContent,
			AnimationData: body.AnimationData,
		}, nil
	}

	if err := requestutil.ParseMultipart(writer, request); err != nil {
		return PageInput{}, err
	}

	var input PageInput

	if raw, ok := requestutil.FormValue(request, FieldPageNumber); ok {
		number, err := strconv.Atoi(raw)
		if err != nil {
			return PageInput{}, validate.RequiredError(FieldPageNumber, "Must be an integer")
		}
		input.PageNumber = number
	}

	input.TextContent = formTextContent(request)

	// An empty animation_data field clears the stored value
	if raw, ok := requestutil.FormValue(request, FieldAnimationData); ok {
		if raw == "" {
			raw = "null"
		}
		input.AnimationData = json.RawMessage(raw)
	}

	image, err := requestutil.FormFile(request, FieldImage)
	if err != nil {
		return PageInput{}, err
	}
	input.Image = image

	for _, code := range language.Supported() {
		file, err := requestutil.FormFile(request, AudioField(code))
		if err != nil {
			return PageInput{}, err
		}
		if file == nil {
			continue
		}
		if input.Audio == nil {
			input.Audio = map[language.Code]*blob.File{}
		}
		input.Audio[code] = file
	}

	return input, nil
}

// formTextContent collects text_content[<code>] fields. It returns nil when none are present.
func formTextContent(request *http.Request) map[language.Code]string {
	var text map[language.Code]string

	prefix := FieldTextContent + "["
	for key, values := range request.MultipartForm.Value {
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}

		code := strings.ToLower(strings.TrimSpace(key[len(prefix) : len(key)-1]))
		if text == nil {
			text = map[language.Code]string{}
		}
		text[language.Code(code)] = values[0]
	}

	return text
}
