// Package config loads agentrun configuration from JSONC files and the
// environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/jsonc"

	"github.com/agentrun-ai/agentrun/internal/agent"
	"github.com/agentrun-ai/agentrun/internal/mcp"
)

// Config is the merged application configuration.
type Config struct {
	// Model in "provider/model" form; agents may override per definition.
	Model string `json:"model,omitempty"`
	// LogLevel overrides the default info level.
	LogLevel string `json:"logLevel,omitempty"`
	// MCP holds per-server overrides merged onto the default catalog.
	MCP mcp.Catalog `json:"mcp,omitempty"`
	// Agents holds per-agent overrides merged onto the built-ins.
	Agents map[string]*agent.Agent `json:"agents,omitempty"`
	// AgentsDir is a directory of YAML agent definitions loaded in
	// addition to Agents.
	AgentsDir string `json:"agentsDir,omitempty"`
}

// Load reads configuration in priority order: the global file
// (~/.config/agentrun/agentrun.json[c]), the project file
// (<dir>/agentrun.json[c]), an AGENTRUN_CONFIG file override, and finally
// AGENTRUN_CONFIG_CONTENT inline JSON. Later sources win per field. Missing
// files are skipped.
func Load(directory string) (*Config, error) {
	cfg := &Config{
		MCP:    make(mcp.Catalog),
		Agents: make(map[string]*agent.Agent),
	}

	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		base := filepath.Join(home, ".config", "agentrun")
		paths = append(paths, filepath.Join(base, "agentrun.json"), filepath.Join(base, "agentrun.jsonc"))
	}
	if directory != "" {
		paths = append(paths, filepath.Join(directory, "agentrun.json"), filepath.Join(directory, "agentrun.jsonc"))
	}
	if override := os.Getenv("AGENTRUN_CONFIG"); override != "" {
		paths = append(paths, override)
	}

	for _, path := range paths {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if content := os.Getenv("AGENTRUN_CONFIG_CONTENT"); content != "" {
		var inline Config
		if err := json.Unmarshal(interpolate([]byte(content)), &inline); err == nil {
			mergeConfig(cfg, &inline)
		}
	}

	return cfg, nil
}

// loadFile merges one config file into cfg. Absent files are skipped;
// unparsable ones are an error so misconfiguration is not silently ignored.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data)

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	mergeConfig(cfg, &fileCfg)
	return nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate substitutes {env:VAR} placeholders with environment values.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func mergeConfig(dst, src *Config) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.AgentsDir != "" {
		dst.AgentsDir = src.AgentsDir
	}
	for name, server := range src.MCP {
		dst.MCP[name] = server
	}
	for name, a := range src.Agents {
		dst.Agents[name] = a
	}
}
