// Package idgen produces sortable identifiers for requests and log correlation.
package idgen

import (
	"github.com/oklog/ulid/v2"
)

// RequestID returns a new ULID string. Safe for concurrent use.
func RequestID() string {
	return ulid.Make().String()
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
