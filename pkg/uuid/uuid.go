// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers.

It wraps the standard UUID library to generate Version 7 values.

Properties:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Index friendly: Sequential keys keep B-tree inserts local in PostgreSQL and SQLite.
  - Portable: Rendered as the canonical 36-character string in both stores.

Every storybook and page primary key is generated here.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	// entropy failure is an unrecoverable system-level error
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// IsValid reports whether value parses as a UUID of any version.
func IsValid(value string) bool {
	return uuid.Validate(value) == nil
}
