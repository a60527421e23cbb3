package chart

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// ProxyPath is where the server-side chart proxy is mounted.
const ProxyPath = "/estimationtools/chart"

// Renderer turns chart parameters into an image reference, either pointing straight at the
// chart service or at the local proxy.
type Renderer struct {
	ServerSide bool
	ServiceURL string
	BaseHref   string
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

func NewRenderer(serverSide bool, serviceURL string, baseHref string) Renderer {
	return Renderer{
		ServerSide: serverSide,
		ServiceURL: serviceURL,
		BaseHref:   strings.TrimSuffix(baseHref, "/"),
	}
}

// Image encodes params. In server mode the encoded string is quoted again and passed as the
// single data parameter of the proxy.
func (r Renderer) Image(name string, params url.Values) Image {
	encoded := params.Encode()
	if r.ServerSide {
		return Image{
			Src: fmt.Sprintf("%s%s?data=%s", r.BaseHref, ProxyPath, url.QueryEscape(encoded)),
			Alt: name + " (server)",
		}
	}
	return Image{
		Src: fmt.Sprintf("%s?%s", r.ServiceURL, encoded),
		Alt: name + " (client)",
	}
}

func (i Image) HTML() string {
	return fmt.Sprintf(`<img src="%s" alt="%s"/>`, html.EscapeString(i.Src), html.EscapeString(i.Alt))
}

// Params decodes the chart parameters back out of an image source.
func (i Image) Params() (url.Values, error) {
	u, err := url.Parse(i.Src)
	if err != nil {
		return nil, err
	}
	query := u.Query()
	if u.Path == ProxyPath || strings.HasSuffix(u.Path, ProxyPath) {
		return url.ParseQuery(query.Get("data"))
	}
	return query, nil
}
