package chart

import (
	"net/http"

	"github.com/tshalif/estimationtoolsplugin/internal/rest"
	log "github.com/sirupsen/logrus"
)

// hop-by-hop headers are not copied from the chart service response.
var skippedHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

type ProxyHandler struct {
	client Client
}

func NewProxyHandler(client Client) *ProxyHandler {
	return &ProxyHandler{client: client}
}

// GetChart godoc
// @Summary Fetch a chart server-side
// @Description Forwards the encoded chart arguments to the chart service and streams the image back
// @Tags Chart
// @Produce png
// @Param data query string true "URL encoded chart arguments"
// @Success 200 {file} binary "Chart image"
// @Failure 400 {object} rest.ErrorResponse "Missing chart data"
// @Failure 502 {object} rest.ErrorResponse "Chart service unavailable"
// @Router /estimationtools/chart [get]
func (h *ProxyHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	data := r.URL.Query().Get("data")
	if data == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing chart data", "the data parameter is required")
		return
	}

	chart, err := h.client.Fetch(r.Context(), data)
	if err != nil {
		rest.WriteError(w, http.StatusBadGateway, "Chart service unavailable", err.Error())
		return
	}

	for header, values := range chart.Header {
		if skippedHeaders[http.CanonicalHeaderKey(header)] {
			continue
		}
		for _, value := range values {
			w.Header().Add(header, value)
		}
	}
	w.WriteHeader(chart.StatusCode)
	if _, err := w.Write(chart.Body); err != nil {
		log.Errorf("failed to write chart response: %v", err)
	}
}
