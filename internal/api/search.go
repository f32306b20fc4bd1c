package api

import (
	"log/slog"
	"net/http"
)

// Search handles POST /search. The body names an item by id; the photo
// reference is only included when has_photo is truthy.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFields(w, r)
	if !ok {
		return
	}

	raw, present := f["id"]
	if !present || raw == "" {
		jsonError(w, http.StatusBadRequest, msgIDRequired)
		return
	}

	id, ok := parsePositive(raw)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	item, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	includePhoto := truthy(f["has_photo"])
	slog.Debug("item searched", "id", id, "has_photo", includePhoto)
	jsonResponse(w, http.StatusOK, item.Search(includePhoto))
}
