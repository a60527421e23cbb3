package chart

import (
	"context"
	"net/http"
)

type ClientStub struct {
	Requests []string
	Response Response
	Err      error
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		Response: Response{StatusCode: http.StatusOK, Header: http.Header{}},
	}
}

func (c *ClientStub) Fetch(ctx context.Context, data string) (Response, error) {
	c.Requests = append(c.Requests, data)
	if c.Err != nil {
		return Response{}, c.Err
	}
	return c.Response, nil
}
