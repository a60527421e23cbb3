package macro

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tshalif/estimationtoolsplugin/internal/rest"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Expand godoc
// @Summary Expand a wiki macro
// @Description Runs the named macro with the raw argument string and returns the HTML fragment
// @Tags Macro
// @Produce html
// @Param name path string true "Macro name, e.g. WorkloadChart"
// @Param args query string false "Macro arguments, e.g. milestone=Sprint 1, width=600"
// @Success 200 {string} string "Expanded HTML"
// @Failure 400 {object} rest.ErrorResponse "Invalid macro arguments"
// @Failure 404 {object} rest.ErrorResponse "Unknown macro"
// @Router /api/macro/{name} [get]
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	content := r.URL.Query().Get("args")

	result, err := h.registry.Expand(r.Context(), name, content)
	if err != nil {
		WriteExpansionError(w, name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(result)); err != nil {
		log.Errorf("failed to write %s expansion: %v", name, err)
	}
}

// List returns the names of the registered macros.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.registry.Names()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteExpansionError maps a macro failure to a response status.
func WriteExpansionError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, ErrMacroNotFound):
		rest.WriteError(w, http.StatusNotFound, "Unknown macro", name)
	case IsArgumentError(err):
		rest.WriteError(w, http.StatusBadRequest, "Invalid macro arguments", err.Error())
	default:
		log.Errorf("%s expansion failed: %v", name, err)
		rest.WriteError(w, http.StatusInternalServerError, "Macro expansion failed", err.Error())
	}
}

// IsArgumentError reports whether the error was caused by the macro call itself.
func IsArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ticket.ErrMilestoneNotFound)
}
