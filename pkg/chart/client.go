package chart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Response is a chart fetched from the chart service.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client interface {
	Fetch(ctx context.Context, data string) (Response, error)
}

type ClientImpl struct {
	upstreamURL string
	httpClient  *http.Client
}

func NewClient(upstreamURL string, timeout time.Duration) *ClientImpl {
	return &ClientImpl{
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Fetch POSTs the already encoded chart arguments to the chart service. POST keeps large
// charts below URL length limits.
func (c *ClientImpl) Fetch(ctx context.Context, data string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstreamURL, strings.NewReader(data))
	if err != nil {
		log.Errorf("Failed to create chart request: %v", err)
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Debugf("Fetch chart, POST + data: %q", data)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to fetch chart: %v", err)
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read chart response: %w", err)
	}
	return Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}
