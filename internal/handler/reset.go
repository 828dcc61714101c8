package handler

import (
	"net/http"

	"github.com/getresett/resett/internal/reset"
)

// ResetHandler serves the guided reset catalog.
type ResetHandler struct{}

func NewResetHandler() *ResetHandler {
	return &ResetHandler{}
}

type catalogResponse struct {
	States []string     `json:"states"`
	Resets []reset.Reset `json:"resets"`
}

// Catalog returns every emotional state and its resets.
func (h *ResetHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		States: reset.States(),
		Resets: reset.All(),
	})
}

// ByState returns the resets for one emotional state.
func (h *ResetHandler) ByState(w http.ResponseWriter, r *http.Request) {
	state := r.PathValue("state")
	resets := reset.ForState(state)
	if resets == nil {
		http.Error(w, "unknown state", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resets)
}
