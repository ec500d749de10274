package tools

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
)

// maxBodySize caps tool request bodies at 1MB.
const maxBodySize = 1 << 20

// HTTPHandler exposes a Gateway over HTTP as POST /tools/{name}. The
// envelope is the whole contract: domain failures come back as failed
// envelopes with status 200, so the HTTP and in-process deployments are
// indistinguishable to the orchestrator. Non-200 statuses are reserved for
// transport-level problems (unknown tool, unreadable body).
type HTTPHandler struct {
	gateway *Gateway
	logger  *log.Logger
}

// NewHTTPHandler wires a Gateway into an http.Handler.
func NewHTTPHandler(gateway *Gateway) *HTTPHandler {
	return &HTTPHandler{
		gateway: gateway,
		logger:  log.New(os.Stderr, "[tools-http] ", log.LstdFlags),
	}
}

// Routes returns the gateway's route table.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tools/{name}", h.handleInvoke)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	return mux
}

func (h *HTTPHandler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name, err := ParseToolName(r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be valid JSON"})
		return
	}

	env := h.gateway.Dispatch(r.Context(), name, body)
	if !env.Success {
		h.logger.Printf("%s returned error: %s", name, env.Error)
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
