package mcp

import (
	"net/url"
	"os"

	"github.com/agentrun-ai/agentrun/internal/logging"
)

// defaultServers is the static catalog of servers any agent may request.
// Secrets are injected at resolution time, never stored here.
var defaultServers = Catalog{
	"kiwi-com-flight-search": {
		Transport: TransportSSE,
		URL:       "https://mcp.kiwi.com",
	},
	"tinyfish": {
		Transport: TransportHTTP,
		URL:       "https://agent.tinyfish.ai/mcp",
	},
	"tavily": {
		Transport: TransportSSE,
		URL:       "https://mcp.tavily.com/mcp",
	},
	"webfetch": {
		Transport: TransportHTTP,
		URL:       "https://mcp.webfetch.dev/mcp",
	},
}

// secretRule describes how one server's credential is injected from the
// process environment: either as a URL query parameter or a request header.
type secretRule struct {
	envVar string
	query  string
	header string
}

var secretRules = map[string]secretRule{
	"tavily":   {envVar: "TAVILY_API_KEY", query: "tavilyApiKey"},
	"tinyfish": {envVar: "TINYFISH_API_KEY", header: "X-API-Key"},
}

// DefaultServerNames returns the names in the static catalog.
func DefaultServerNames() []string {
	names := make([]string, 0, len(defaultServers))
	for name := range defaultServers {
		names = append(names, name)
	}
	return names
}

// ResolveCatalog merges overrides into copies of the default catalog and
// injects credentials from the environment. Overrides win per field, not per
// record: an override that only sets Headers keeps the default URL and
// transport. A missing credential degrades the server (it stays in the
// catalog and will fail at connect time) and logs a warning; resolution
// itself never fails and never mutates the defaults.
func ResolveCatalog(overrides Catalog) Catalog {
	resolved := make(Catalog, len(defaultServers)+len(overrides))
	for name, cfg := range defaultServers {
		resolved[name] = cfg.clone()
	}

	for name, over := range overrides {
		base, ok := resolved[name]
		if !ok {
			resolved[name] = over.clone()
			continue
		}
		resolved[name] = mergeServerConfig(base, over)
	}

	for name, rule := range secretRules {
		cfg, ok := resolved[name]
		if !ok {
			continue
		}
		secret := os.Getenv(rule.envVar)
		if secret == "" {
			logging.Warn().
				Str("server", name).
				Str("env", rule.envVar).
				Msg("credential not set; server will likely fail to connect")
			continue
		}
		resolved[name] = applySecret(cfg, rule, secret)
	}

	return resolved
}

// mergeServerConfig applies override fields onto a copy of base. Zero-valued
// override fields leave the base value in place; maps merge per key.
func mergeServerConfig(base, over ServerConfig) ServerConfig {
	out := base.clone()
	if over.Transport != "" {
		out.Transport = over.Transport
	}
	if over.URL != "" {
		out.URL = over.URL
	}
	if len(over.Command) > 0 {
		out.Command = append([]string(nil), over.Command...)
	}
	if over.Timeout > 0 {
		out.Timeout = over.Timeout
	}
	if over.Enabled != nil {
		v := *over.Enabled
		out.Enabled = &v
	}
	for k, v := range over.Headers {
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}
		out.Headers[k] = v
	}
	for k, v := range over.Env {
		if out.Env == nil {
			out.Env = make(map[string]string)
		}
		out.Env[k] = v
	}
	return out
}

func applySecret(cfg ServerConfig, rule secretRule, secret string) ServerConfig {
	switch {
	case rule.query != "":
		u, err := url.Parse(cfg.URL)
		if err != nil {
			logging.Warn().Str("url", cfg.URL).Err(err).Msg("cannot inject credential into malformed URL")
			return cfg
		}
		q := u.Query()
		q.Set(rule.query, secret)
		u.RawQuery = q.Encode()
		cfg.URL = u.String()
	case rule.header != "":
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[rule.header] = secret
	}
	return cfg
}
