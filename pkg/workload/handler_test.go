package workload

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workloadRequest(args string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/workload?args="+url.QueryEscape(args), nil)
}

func TestHandler_GetWorkload(t *testing.T) {
	t.Run("should return the chart descriptor", func(t *testing.T) {
		// given
		service, repo := setupService(false)
		addTicket(repo, "10", "A")
		addTicket(repo, "12.5", "B")
		handler := NewHandler(service)
		w := httptest.NewRecorder()

		// when
		handler.GetWorkload(w, workloadRequest("milestone=milestone1, enddate=2024-01-08"))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var dto WorkloadDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "Workload 22.5h (~1 workdays left)", dto.Title)
		assert.Equal(t, OverloadColor, dto.TitleColor)
		assert.Equal(t, 22.5, dto.Total)
		require.NotNil(t, dto.WorkdaysLeft)
		assert.Equal(t, 1, *dto.WorkdaysLeft)
		require.Len(t, dto.Slices, 2)
		assert.Equal(t, SliceDTO{Label: "A 10h (~8 hours left)!", Hours: 10, Value: "10", Overloaded: true}, dto.Slices[0])
		assert.Equal(t, SliceDTO{Label: "B 12.5h (~8 hours left)!", Hours: 12.5, Value: "12", Overloaded: true}, dto.Slices[1])
		assert.Equal(t, "Workload Chart (client)", dto.Image.Alt)
	})

	t.Run("should return the image element for html clients", func(t *testing.T) {
		service, repo := setupService(false)
		addTicket(repo, "10", "A")
		handler := NewHandler(service)
		req := workloadRequest("milestone=milestone1")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		w := httptest.NewRecorder()

		handler.GetWorkload(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "<img src="))
	})

	t.Run("should return bad request for invalid options", func(t *testing.T) {
		service, _ := setupService(false)
		handler := NewHandler(service)
		w := httptest.NewRecorder()

		handler.GetWorkload(w, workloadRequest("startdate=soon"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should fail on malformed estimations", func(t *testing.T) {
		service, repo := setupService(false)
		addTicket(repo, "lots", "A")
		handler := NewHandler(service)
		w := httptest.NewRecorder()

		handler.GetWorkload(w, workloadRequest("milestone=milestone1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
