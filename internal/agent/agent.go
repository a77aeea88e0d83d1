package agent

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"infocollect/internal/shared"

	"github.com/sirupsen/logrus"
)

var ErrNoLocation = errors.New("location description must not be empty")

type Agent struct {
	ConfigPath   string
	Cfg          *shared.AgentConfig
	Client       *http.Client
	RouterClient *http.Client
	Log          logrus.FieldLogger

	// discoverGateway finds the default IPv4 gateway; replaced in tests.
	discoverGateway func() (string, error)
}

func New(configPath string, log logrus.FieldLogger) (*Agent, error) {
	cfg, err := shared.LoadAgentConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(configPath, cfg, log), nil
}

func NewWithConfig(configPath string, cfg *shared.AgentConfig, log logrus.FieldLogger) *Agent {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	routerClient := &http.Client{Timeout: timeout}
	if cfg.RouterInsecure {
		// home routers mostly serve self-signed certs
		routerClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Agent{
		ConfigPath:      configPath,
		Cfg:             cfg,
		Client:          &http.Client{Timeout: timeout},
		RouterClient:    routerClient,
		Log:             log,
		discoverGateway: defaultGateway,
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// lanIPv4s lists non-loopback IPv4 addresses of this host.
func lanIPv4s() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	var out []string
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			out = append(out, v4.String())
		}
	}
	return out
}

func strings2Values(ss []string) shared.Value {
	items := make([]shared.Value, 0, len(ss))
	for _, s := range ss {
		items = append(items, shared.String(s))
	}
	return shared.Array(items...)
}

// Collect assembles the report uploaded to the server. WAN and router lookups
// are best-effort: on failure the field is left out.
func (a *Agent) Collect(ctx context.Context) (shared.Value, error) {
	loc := strings.TrimSpace(a.Cfg.LocationDesc)
	if loc == "" {
		return shared.Value{}, ErrNoLocation
	}

	report := shared.Object(
		shared.Member{Key: shared.FieldHostname, Value: shared.String(hostname())},
		shared.Member{Key: shared.FieldOS, Value: shared.String(runtime.GOOS)},
		shared.Member{Key: shared.FieldArch, Value: shared.String(runtime.GOARCH)},
		shared.Member{Key: shared.FieldLanIPs, Value: strings2Values(lanIPv4s())},
	)

	if a.Cfg.WanInfoURL != "" {
		wan, err := a.fetchJSON(ctx, a.Cfg.WanInfoURL)
		if err != nil {
			a.Log.WithError(err).Warn("wan info lookup failed")
		} else {
			report = report.With(shared.FieldWanIPInfo, wan)
		}
	}

	routerURL := a.Cfg.RouterURL
	if gw, err := a.discoverGateway(); err != nil {
		a.Log.WithError(err).Debug("default gateway not found")
	} else {
		report = report.With(shared.FieldGatewayIP, shared.String(gw))
		if routerURL == "" {
			routerURL = gw
		}
	}

	if routerURL != "" {
		page, err := a.fetchRouterPage(ctx, routerURL)
		if err != nil {
			a.Log.WithError(err).Warnf("router page lookup failed: %s", routerURL)
		} else {
			report = report.With(shared.FieldRouterTitle, shared.String(page.Title))
			report = report.With(shared.FieldRouterHTML, shared.String(page.HTML))
		}
	}

	if inv, err := collectInventory(ctx); err != nil {
		a.Log.WithError(err).Warn("inventory collection failed")
	} else if !inv.IsNull() {
		report = report.With(shared.FieldInventory, inv)
	}

	if len(a.Cfg.Tags) > 0 {
		report = report.With(shared.FieldTags, strings2Values(a.Cfg.Tags))
	}
	report = report.With(shared.FieldLocationDesc, shared.String(loc))
	return report, nil
}

func (a *Agent) fetchJSON(ctx context.Context, url string) (shared.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return shared.Value{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return shared.Value{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return shared.Value{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return shared.Value{}, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return shared.ParseValue(b)
}

// Upload posts report to the server and returns its envelope.
func (a *Agent) Upload(ctx context.Context, report shared.Value) (*shared.CollectResponse, error) {
	body, err := report.MarshalJSON()
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(a.Cfg.ServerURL, "/") + shared.CollectPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("upload: reading response (status %d): %w", resp.StatusCode, err)
	}

	var cr shared.CollectResponse
	if err := json.Unmarshal(b, &cr); err != nil {
		return nil, fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode != http.StatusOK || !cr.Success {
		return &cr, fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, cr.Error)
	}
	return &cr, nil
}
