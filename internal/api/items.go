package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/erazemk/inventar/internal/blobstore"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/store"
)

// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// ItemsHandler handles the item registry endpoints.
type ItemsHandler struct {
	Registry       *store.Registry
	Blobs          *blobstore.Store
	Photos         *imaging.Processor
	MaxUploadBytes int64
}

func (h *ItemsHandler) limitBody(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
}

func (h *ItemsHandler) readFields(w http.ResponseWriter, r *http.Request) (fields, bool) {
	h.limitBody(w, r)
	f, err := readFields(r, h.MaxUploadBytes)
	if err != nil {
		writeFieldsError(w, err)
		return nil, false
	}
	return f, true
}

// storePhoto writes an uploaded photo to the blob store and returns the new
// blob name. JPEG and PNG uploads are normalized first; anything else is kept
// byte for byte under its original name. It writes the error response itself.
func (h *ItemsHandler) storePhoto(w http.ResponseWriter, file io.Reader, filename string) (string, bool) {
	raw, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, msgInvalidForm)
		return "", false
	}

	data, name := raw, filename
	processed, err := h.Photos.Process(bytes.NewReader(raw))
	switch {
	case err == nil:
		data, name = processed, jpegName(filename)
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		slog.Info("storing photo unprocessed", "filename", filename, "reason", err)
	default:
		slog.Error("failed to process photo", "error", err)
		jsonError(w, http.StatusInternalServerError, msgInternal)
		return "", false
	}

	stored, err := h.Blobs.Save(name, data)
	if err != nil {
		slog.Error("failed to store photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return "", false
	}
	return stored, true
}

// releasePhoto removes a blob that no item refers to any more.
func (h *ItemsHandler) releasePhoto(name string) {
	if name == "" {
		return
	}
	if err := h.Blobs.Remove(name); err != nil {
		slog.Warn("failed to remove photo", "photo", name, "error", err)
	}
}

// jpegName swaps the extension of an uploaded filename for .jpg, since every
// stored photo is re-encoded as JPEG.
func jpegName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".jpg"
}

// Register handles POST /register.
func (h *ItemsHandler) Register(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readFields(w, r)
	if !ok {
		return
	}

	name := f.name()
	if name == "" {
		jsonError(w, http.StatusBadRequest, msgNameRequired)
		return
	}

	var photo string
	file, header, err := photoFile(r)
	switch {
	case err == nil:
		defer file.Close()
		if photo, ok = h.storePhoto(w, file, header.Filename); !ok {
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		jsonError(w, http.StatusBadRequest, msgInvalidForm)
		return
	}

	item, err := h.Registry.Create(r.Context(), store.NewItem{
		Name:        name,
		Description: f["description"],
		Photo:       photo,
	})
	if err != nil {
		h.releasePhoto(photo)
		writeStoreError(w, err)
		return
	}

	slog.Info("item registered", "id", item.ID, "name", item.Name, "photo", photo != "")
	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /inventory.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Registry.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /inventory/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	item, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /inventory/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	f, ok := h.readFields(w, r)
	if !ok {
		return
	}

	item, err := h.Registry.Update(r.Context(), id, store.ItemUpdate{
		Name:        f.name(),
		Description: f["description"],
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("item updated", "id", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /inventory/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	item, err := h.Registry.Delete(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if item.Photo != nil {
		h.releasePhoto(*item.Photo)
	}

	slog.Info("item deleted", "id", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusOK, item)
}

// GetPhoto handles GET /inventory/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	ref, err := h.Registry.GetPhotoRef(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	data, err := h.Blobs.Read(ref)
	if errors.Is(err, blobstore.ErrNotExist) {
		slog.Warn("photo missing from cache directory", "id", id, "photo", ref)
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to read photo", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", imaging.ContentType(data))
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}

// ReplacePhoto handles PUT /inventory/{id}/photo.
func (h *ItemsHandler) ReplacePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, http.StatusNotFound, msgNotFound)
		return
	}

	if _, err := h.Registry.Get(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	if _, ok := h.readFields(w, r); !ok {
		return
	}

	file, header, err := photoFile(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	photo, ok := h.storePhoto(w, file, header.Filename)
	if !ok {
		return
	}

	item, previous, err := h.Registry.SetPhoto(r.Context(), id, photo)
	if err != nil {
		h.releasePhoto(photo)
		writeStoreError(w, err)
		return
	}
	h.releasePhoto(previous)

	slog.Info("item photo replaced", "id", item.ID, "photo", photo)
	jsonResponse(w, http.StatusOK, item)
}
