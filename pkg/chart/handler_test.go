package chart

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientImpl_Fetch(t *testing.T) {
	var gotMethod, gotContentType, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PNG"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, 5*time.Second)

	// when
	resp, err := client.Fetch(context.Background(), "chs=400x100&cht=p3")

	// then
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "chs=400x100&cht=p3", gotBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte("PNG"), resp.Body)
}

func TestProxyHandler_GetChart(t *testing.T) {
	t.Run("should forward data and copy the response", func(t *testing.T) {
		// given
		client := NewClientStub()
		client.Response = Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"image/png"}, "Content-Length": {"3"}},
			Body:       []byte("PNG"),
		}
		handler := NewProxyHandler(client)
		data := "chs=400x100&chtt=Workload"
		req := httptest.NewRequest(http.MethodGet, ProxyPath+"?data="+url.QueryEscape(data), nil)
		w := httptest.NewRecorder()

		// when
		handler.GetChart(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "PNG", w.Body.String())
		assert.Equal(t, []string{data}, client.Requests)
	})

	t.Run("should reject missing data", func(t *testing.T) {
		client := NewClientStub()
		handler := NewProxyHandler(client)
		w := httptest.NewRecorder()

		handler.GetChart(w, httptest.NewRequest(http.MethodGet, ProxyPath, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, client.Requests)
	})

	t.Run("should return bad gateway when the chart service fails", func(t *testing.T) {
		client := NewClientStub()
		client.Err = errors.New("connection refused")
		handler := NewProxyHandler(client)
		w := httptest.NewRecorder()

		handler.GetChart(w, httptest.NewRequest(http.MethodGet, ProxyPath+"?data=chs%3D1x1", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
