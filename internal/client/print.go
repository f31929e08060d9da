package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

// Print writes the response body as indented JSON, colored when color is set.
func (r *Response[T]) Print(w io.Writer, color bool) error {
	raw := r.raw
	if len(raw) == 0 {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal body as JSON")
		}
		raw = b
	}
	out := pretty.Pretty(raw)
	if color {
		out = pretty.Color(out, nil)
	}
	_, err := fmt.Fprint(w, string(out))
	return err
}
