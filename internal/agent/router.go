package agent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

type routerPage struct {
	Title string
	HTML  string
}

// fetchRouterPage loads the router's admin page. A bare host is tried over
// https first, then http.
func (a *Agent) fetchRouterPage(ctx context.Context, target string) (*routerPage, error) {
	candidates := []string{target}
	if !strings.Contains(target, "://") {
		host := strings.TrimRight(target, "/")
		candidates = []string{"https://" + host + "/", "http://" + host + "/"}
	}

	var lastErr error
	for _, u := range candidates {
		page, err := a.getRouterPage(ctx, u)
		if err == nil {
			return page, nil
		}
		a.Log.WithError(err).Debugf("router fetch %s", u)
		lastErr = err
	}
	return nil, lastErr
}

func (a *Agent) getRouterPage(ctx context.Context, url string) (*routerPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.RouterClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return parseRouterPage(string(b))
}

func parseRouterPage(src string) (*routerPage, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return nil, err
	}
	return &routerPage{Title: pageTitle(doc), HTML: sb.String()}, nil
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := pageTitle(c); t != "" {
			return t
		}
	}
	return ""
}
