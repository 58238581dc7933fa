package snapshot

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrMalformed reports a snapshot document that is not valid JSON.
var ErrMalformed = errors.New("malformed snapshot document")

// SanitizeOptions selects which fields to strip from a snapshot document
// before it is applied to a rendering host.
type SanitizeOptions struct {
	// RemoveBackground deletes entries[*].snapshot.canvas3d so the host's
	// own background settings survive the load.
	RemoveBackground bool
	// RemoveCamera deletes entries[*].snapshot.camera so the host's camera
	// orientation survives the load.
	RemoveCamera bool
}

// Sanitize strips the selected fields from every entry of the document that
// carries a snapshot object. Entries without one are left alone. A document
// without an entries array is returned unchanged; a document that is not
// valid JSON is an error.
func Sanitize(text []byte, opts SanitizeOptions) ([]byte, error) {
	if !gjson.ValidBytes(text) {
		return nil, ErrMalformed
	}
	if !opts.RemoveBackground && !opts.RemoveCamera {
		return text, nil
	}

	entries := gjson.GetBytes(text, "entries")
	if !entries.IsArray() {
		return text, nil
	}

	out := text
	n := len(entries.Array())
	for i := 0; i < n; i++ {
		if !gjson.GetBytes(out, fmt.Sprintf("entries.%d.snapshot", i)).Exists() {
			continue
		}
		var err error
		if opts.RemoveBackground {
			out, err = sjson.DeleteBytes(out, fmt.Sprintf("entries.%d.snapshot.canvas3d", i))
			if err != nil {
				return nil, fmt.Errorf("strip background from entry %d: %w", i, err)
			}
		}
		if opts.RemoveCamera {
			out, err = sjson.DeleteBytes(out, fmt.Sprintf("entries.%d.snapshot.camera", i))
			if err != nil {
				return nil, fmt.Errorf("strip camera from entry %d: %w", i, err)
			}
		}
	}
	return out, nil
}
