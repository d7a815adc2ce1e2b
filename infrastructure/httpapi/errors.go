package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"video-toolbox/domain/asset"
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

func statusFor(kind error) int {
	switch kind {
	case asset.ErrValidation, asset.ErrRange, asset.ErrLimitExceeded, asset.ErrMediaUnreadable:
		return http.StatusBadRequest
	case asset.ErrUnauthorized:
		return http.StatusUnauthorized
	case asset.ErrLinkExpired:
		return http.StatusForbidden
	case asset.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Error: "File too large.",
			Kind:  asset.KindName(asset.ErrValidation),
		})
		return
	}

	kind := asset.KindOf(err)
	if kind == nil {
		a.Logger.Error("unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "An unexpected error occurred."})
		return
	}

	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		a.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", asset.KindName(kind), "error", err)
	}

	writeJSON(w, status, errorBody{
		Error:     asset.Message(err),
		Kind:      asset.KindName(kind),
		Retryable: asset.Retryable(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
