package dto

import (
	"io"

	"github.com/goccy/go-json"
)

// Decode reads a single JSON document from r into v.
func Decode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
