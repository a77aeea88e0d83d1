package shared

import (
	"encoding/json"
	"net"
	"os"
	"strconv"
)

type ServerConfig struct {
	Host         string
	Port         int
	MaxBodyBytes int64
}

// DefaultServerConfig is the only configuration ic-server runs with:
// all interfaces, port 8080.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		MaxBodyBytes: 16 << 20,
	}
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type AgentConfig struct {
	ServerURL      string   `json:"server_url"`
	LocationDesc   string   `json:"location_desc"`
	WanInfoURL     string   `json:"wan_info_url"`
	RouterURL      string   `json:"router_url"`
	RouterInsecure bool     `json:"router_insecure_tls"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	Tags           []string `json:"tags"`
}

func (c *AgentConfig) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "http://127.0.0.1:8080"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// LoadAgentConfig reads path; a missing file yields the defaults.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	var c AgentConfig
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func SaveAgentConfig(path string, c *AgentConfig) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}
