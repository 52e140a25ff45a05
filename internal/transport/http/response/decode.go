package response

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// DecodeJSON decodes a JSON request body into dst. An empty or malformed
// body, or one larger than MaxJSONBody, yields invalid_json.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}
	return nil
}
