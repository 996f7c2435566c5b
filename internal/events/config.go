package events

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the sink configuration YAML named by BI_EVENTS_CONFIG.
// An empty path returns the zero config, which disables dispatching.
func LoadConfig(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	return c, err
}
