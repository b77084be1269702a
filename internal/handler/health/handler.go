package health

import (
	"net/http"
	"time"

	"github.com/bridgetext/coachbot/backend/pkg/utils"
)

// Prober reports per-collaborator readiness.
type Prober interface {
	Ready() (retrieval, generation bool)
}

// Handler serves the health probe with collaborator readiness and the static
// model identifiers.
type Handler struct {
	prober     Prober
	model      string
	embeddings string
}

// New creates the health handler.
func New(prober Prober, model, embeddings string) *Handler {
	return &Handler{prober: prober, model: model, embeddings: embeddings}
}

// Handle answers the probe.
func (h *Handler) Handle(w http.ResponseWriter, _ *http.Request) {
	retrievalReady, generationReady := h.prober.Ready()

	status := "healthy"
	if !retrievalReady || !generationReady {
		status = "degraded"
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           status,
		"qdrant_connected": retrievalReady,
		"openai_ready":     generationReady,
		"model":            h.model,
		"embeddings":       h.embeddings,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}
