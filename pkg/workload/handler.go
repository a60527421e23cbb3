package workload

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	log "github.com/sirupsen/logrus"
)

type SliceDTO struct {
	Label      string  `json:"label"`
	Hours      float64 `json:"hours"`
	Value      string  `json:"value"`
	Overloaded bool    `json:"overloaded,omitempty"`
}

type WorkloadDTO struct {
	Title        string      `json:"title"`
	TitleColor   string      `json:"titleColor"`
	Total        float64     `json:"total"`
	WorkdaysLeft *int        `json:"workdaysLeft,omitempty"`
	Slices       []SliceDTO  `json:"slices"`
	Image        chart.Image `json:"image"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetWorkload godoc
// @Summary Workload per owner
// @Description Aggregates remaining estimations per ticket owner. Returns the chart descriptor, or the <img> element when HTML is accepted
// @Tags Workload
// @Produce json,html
// @Param args query string false "WorkloadChart arguments, e.g. milestone=Sprint 1, remainingworkload=true"
// @Success 200 {object} WorkloadDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid macro arguments"
// @Failure 500 {object} rest.ErrorResponse "Workload could not be computed"
// @Router /api/workload [get]
func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	log.Debug("Computing workload")
	result, err := h.service.Chart(r.Context(), r.URL.Query().Get("args"))
	if err != nil {
		macro.WriteExpansionError(w, MacroName, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(result.Image.HTML())); err != nil {
			log.Errorf("failed to write workload chart: %v", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ResultToDTO(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ResultToDTO(result Result) WorkloadDTO {
	slices := make([]SliceDTO, 0, len(result.Spec.Slices))
	for _, s := range result.Spec.Slices {
		slices = append(slices, SliceDTO{
			Label:      s.Label,
			Hours:      s.Hours,
			Value:      s.Value,
			Overloaded: s.Overloaded,
		})
	}
	return WorkloadDTO{
		Title:        result.Spec.Title,
		TitleColor:   result.Spec.TitleColor,
		Total:        result.Spec.Total,
		WorkdaysLeft: result.Spec.WorkdaysLeft,
		Slices:       slices,
		Image:        result.Image,
	}
}
