package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jackzampolin/fireform/internal/svcctx"
	"github.com/jackzampolin/fireform/internal/templates"
)

// maxBodyBytes bounds request bodies; transcripts are plain text.
const maxBodyBytes = 8 << 20

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// lookupTemplate loads a stored template when id is set.
// It returns nil, nil for an empty id.
func lookupTemplate(ctx context.Context, id string) (*templates.Template, *templates.Store, error) {
	if id == "" {
		return nil, nil, nil
	}
	store := svcctx.TemplatesFrom(ctx)
	if store == nil {
		return nil, nil, fmt.Errorf("template store not initialized")
	}
	t, err := store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return t, store, nil
}
