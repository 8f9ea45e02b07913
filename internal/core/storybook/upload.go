// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/validate"
)

// # Asset Slots

// Slot describes one asset field: where uploads are stored and what they may contain.
type Slot struct {
	// Directory is the asset store prefix for this slot.
	Directory string

	// MaxBytes is the largest accepted upload.
	MaxBytes int64

	// Types lists the accepted sniffed MIME types.
	Types []string

	// Label names the accepted formats in validation messages.
	Label string
}

// AssetRoot is the prefix shared by every storybook asset directory.
const AssetRoot = "storybooks"

var imageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ogg audio is reported as application/ogg by some sniffers.
var audioTypes = []string{"audio/mpeg", "audio/wav", "audio/x-wav", "audio/ogg", "application/ogg"}

var (
	// CoverSlot accepts the storybook cover.
	CoverSlot = Slot{Directory: AssetRoot + "/covers", MaxBytes: 2 << 20, Types: imageTypes, Label: "jpeg, png, gif"}

	// ImageSlot accepts the page illustration.
	ImageSlot = Slot{Directory: AssetRoot + "/pages/images", MaxBytes: 5 << 20, Types: imageTypes, Label: "jpeg, png, gif"}

	// AudioSlot accepts narration audio in any supported language.
	AudioSlot = Slot{Directory: AssetRoot + "/pages/audio", MaxBytes: 10 << 20, Types: audioTypes, Label: "mp3, wav, ogg"}
)

// Check validates an upload against the slot and records failures on validator.
func (slot Slot) Check(validator *validate.Validator, field string, file *blob.File) {
	if file == nil {
		return
	}

	validator.Custom(field, file.Size() == 0, "The uploaded file is empty")
	validator.Custom(field, file.Size() > slot.MaxBytes,
		fmt.Sprintf("The file may not be greater than %d MB", slot.MaxBytes>>20))

	if file.Size() > 0 && !slot.accepts(file.MIME()) {
		validator.Fail(field, "The file must be one of: "+slot.Label)
	}
}

// accepts walks the sniffed type and its parents so aliases such as audio/x-wav match.
func (slot Slot) accepts(detected *mimetype.MIME) bool {
	for current := detected; current != nil; current = current.Parent() {
		for _, allowed := range slot.Types {
			if current.Is(allowed) || strings.EqualFold(current.String(), allowed) {
				return true
			}
		}
	}
	return false
}
