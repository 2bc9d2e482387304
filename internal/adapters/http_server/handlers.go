package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"rightmove_tools/internal/app"
)

const maxBody = 1 << 20

// Dispatcher is the tool surface served over HTTP.
type Dispatcher interface {
	Tools() []app.Tool
	Dispatch(ctx context.Context, name string, args json.RawMessage) app.Outcome
}

type Handlers struct{ D Dispatcher }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/tools", h.listTools)
	s.mux.Post("/v1/tools/{name}", h.callTool)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// listTools serves the tool catalogue. It only changes between releases, so
// clients may revalidate with If-None-Match.
func (h *Handlers) listTools(w http.ResponseWriter, r *http.Request) {
	etag, body := calcETagAndBody(map[string]any{"tools": h.D.Tools()})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, body)
}

// callTool dispatches the request body as the tool's arguments. Failures the
// tool reports travel inside the envelope; only an unknown tool or a
// malformed body is an HTTP-level error.
func (h *Handlers) callTool(w http.ResponseWriter, r *http.Request) {
	args, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Request Too Large", "arguments exceed 1 MiB")
			return
		}
		writeProblem(w, http.StatusBadRequest, "Bad Request", "could not read request body")
		return
	}

	out := h.D.Dispatch(r.Context(), chi.URLParam(r, "name"), args)
	status := http.StatusOK
	if !out.OK() {
		switch out.Failure.Kind {
		case app.UnknownTool:
			writeProblem(w, http.StatusNotFound, "Not Found", out.Failure.Message)
			return
		case app.InvalidArguments:
			status = http.StatusBadRequest
		}
	}

	body, err := json.Marshal(out.Envelope())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "encode envelope")
		return
	}
	writeJSON(w, status, body)
}
