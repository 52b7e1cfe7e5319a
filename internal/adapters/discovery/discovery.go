package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const ProxyPluginID = "proxy"

type Config struct {
	BaseURL string            `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Plugins map[string]string `yaml:"plugins" mapstructure:"plugins" validate:"dive,url"`
}

// Discovery resolves the base URL of a portal backend plugin. Explicit
// per-plugin URLs take precedence over "<base_url>/api/<plugin>".
type Discovery struct {
	baseURL string
	plugins map[string]string
}

func New(cfg Config) *Discovery {
	plugins := make(map[string]string, len(cfg.Plugins))
	for id, u := range cfg.Plugins {
		plugins[id] = strings.TrimRight(u, "/")
	}
	return &Discovery{baseURL: strings.TrimRight(cfg.BaseURL, "/"), plugins: plugins}
}

func (d *Discovery) BaseURL(pluginID string) (string, error) {
	if u, ok := d.plugins[pluginID]; ok {
		return u, nil
	}
	if d.baseURL == "" {
		return "", errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("cannot resolve URL for plugin '%s'", pluginID),
			"Set discovery.base_url or discovery.plugins."+pluginID+".")
	}
	return d.baseURL + "/api/" + url.PathEscape(pluginID), nil
}

// ProxyURL joins a proxy sub-path such as "/bamboohr/api/..." onto the proxy
// plugin's base URL.
func (d *Discovery) ProxyURL(subPath string) (string, error) {
	base, err := d.BaseURL(ProxyPluginID)
	if err != nil {
		return "", err
	}
	return base + "/" + strings.TrimLeft(subPath, "/"), nil
}
