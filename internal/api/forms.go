package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errInvalidForm = errors.New("invalid multipart form")
)

// fields holds the text fields of a request body.
type fields map[string]string

// name returns inventory_name, falling back to the shorter name alias.
func (f fields) name() string {
	if v := f["inventory_name"]; v != "" {
		return v
	}
	return f["name"]
}

// readFields parses a JSON, urlencoded or multipart body into its text
// fields. A request with no body or an unknown content type yields no fields.
// The caller is expected to have bounded r.Body.
func readFields(r *http.Request, maxMemory int64) (fields, error) {
	out := fields{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		for k, v := range raw {
			out[k] = jsonText(v)
		}

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
		}
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		for k := range r.PostForm {
			out[k] = r.PostForm.Get(k)
		}
	}

	return out, nil
}

// jsonText renders a decoded JSON scalar as form text.
func jsonText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// writeFieldsError reports a body that could not be parsed.
func writeFieldsError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidForm) {
		jsonError(w, http.StatusBadRequest, msgInvalidForm)
		return
	}
	jsonError(w, http.StatusBadRequest, msgInvalidBody)
}

// photoFile returns the uploaded photo part, or http.ErrMissingFile when the
// request carried none.
func photoFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["photo"]) == 0 {
		return nil, nil, http.ErrMissingFile
	}
	return r.FormFile("photo")
}

// truthy interprets checkbox and boolean-ish form values.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// parseID reads the {id} path segment. Anything that is not a positive
// integer cannot name an item.
func parseID(r *http.Request) (int64, bool) {
	return parsePositive(r.PathValue("id"))
}

func parsePositive(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
