package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/service"
	"github.com/go-chi/chi/v5"
)

// DataService stores JSON items in collections on behalf of a user.
type DataService interface {
	Collections(ctx context.Context, user string) ([]string, error)
	Set(ctx context.Context, user string, item models.DataItem) error
	Get(ctx context.Context, user, collection, key string) (models.StoredItem, error)
	List(ctx context.Context, user, collection string) (map[string]json.RawMessage, error)
	Delete(ctx context.Context, user, collection, key string) error
}

// DataHandler serves /data.
type DataHandler struct {
	DataService DataService
}

// Collections handles GET /data/collections.
func (h *DataHandler) Collections(w http.ResponseWriter, r *http.Request) {
	names, err := h.DataService.Collections(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.Collections{Success: true, Collections: names})
}

// Set handles POST /data/set.
func (h *DataHandler) Set(w http.ResponseWriter, r *http.Request) {
	var item models.DataItem
	if err := decodeJSON(w, r, &item); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.DataService.Set(r.Context(), middleware.GetUserIDFromContext(r.Context()), item)
	if writeDataError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, models.DataSetResult{
		Success:    true,
		Collection: item.Collection,
		Key:        item.Key,
		Message:    "Data stored successfully",
	})
}

// Get handles GET /data/get/{collection}/{key}.
func (h *DataHandler) Get(w http.ResponseWriter, r *http.Request) {
	collection, key := chi.URLParam(r, "collection"), chi.URLParam(r, "key")

	item, err := h.DataService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), collection, key)
	if writeDataError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, models.DataGetResult{
		Success:    true,
		Collection: collection,
		Key:        key,
		Data:       item.Value,
		Owner:      item.Owner,
	})
}

// List handles GET /data/list/{collection}.
func (h *DataHandler) List(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	items, err := h.DataService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), collection)
	if writeDataError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, models.DataListResult{
		Success:    true,
		Collection: collection,
		Count:      len(items),
		Items:      items,
	})
}

// Delete handles DELETE /data/delete/{collection}/{key}.
func (h *DataHandler) Delete(w http.ResponseWriter, r *http.Request) {
	collection, key := chi.URLParam(r, "collection"), chi.URLParam(r, "key")

	err := h.DataService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), collection, key)
	if writeDataError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, models.Result{Success: true, Message: "Data deleted successfully"})
}

// writeDataError answers every non-nil err and reports whether it did.
func writeDataError(w http.ResponseWriter, err error) bool {
	var denied *service.AccessError
	switch {
	case err == nil:
		return false
	case errors.As(err, &denied):
		httpError(w, denied.Detail, http.StatusForbidden)
	case errors.Is(err, service.ErrItemNotFound):
		httpError(w, "Data not found", http.StatusNotFound)
	case writeValidation(w, err):
	default:
		httpError(w, "internal error", http.StatusInternalServerError)
	}
	return true
}
