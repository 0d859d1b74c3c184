package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/platinummonkey/itemservice/pkg/apperror"
	"github.com/platinummonkey/itemservice/pkg/httputil"
	"github.com/platinummonkey/itemservice/pkg/observability"
	"github.com/platinummonkey/itemservice/pkg/storage"
)

const invalidIDMessage = "id must be a positive integer"

// getItem handles GET /api/item/{id}
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePositiveInt32(r, "id")
	if err != nil {
		httputil.WriteError(w, apperror.Validation(invalidIDMessage))
		return
	}

	item, err := s.store.GetItem(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteError(w, apperror.NotFound(fmt.Sprintf("Item %d not found", id)))
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).
			WithError(err).
			WithField("item_id", id).
			Error("Failed to load item")
		httputil.WriteError(w, err)
		return
	}

	_ = httputil.WriteSuccess(w, item)
}

// metrics handles GET /metrics
func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	contentType, body, err := s.registry.Render()
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("Failed to render metrics")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteText(w, http.StatusOK, contentType, body)
}
