package api

import (
	"net/http"

	"github.com/NorthLot-Market/Verdict/internal/engine"
	"github.com/NorthLot-Market/Verdict/internal/signal"
	"github.com/NorthLot-Market/Verdict/internal/store"
)

type AdminHandler struct {
	store  store.Store
	engine *engine.Engine
}

func NewAdminHandler(s store.Store, eng *engine.Engine) *AdminHandler {
	return &AdminHandler{store: s, engine: eng}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Profiles exposes the active scoring profiles so operators can verify
// weight overrides took effect.
func (h *AdminHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	domains := []signal.Domain{
		signal.DomainFraud, signal.DomainDuplicate, signal.DomainPricing,
		signal.DomainSuccess, signal.DomainDispute,
	}
	resp := make(map[string]signal.Profile, len(domains))
	for _, d := range domains {
		resp[string(d)] = h.engine.Profile(d)
	}
	writeJSON(w, http.StatusOK, resp)
}
