package notify

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelConfig declares one named delivery channel in the notify YAML file.
type ChannelConfig struct {
	Type     string   `yaml:"type"` // slack, webhook or email
	URL      string   `yaml:"url"`
	Secret   string   `yaml:"secret"`
	Addr     string   `yaml:"addr"`
	Host     string   `yaml:"host"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// Config maps channel names, as referenced by alerts, to their transports.
type Config struct {
	Channels map[string]ChannelConfig `yaml:"channels"`
}

// LoadConfig reads YAML from file path. If path is empty, returns zero value.
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

// Build instantiates the channel named name, or nil if unknown or malformed.
func (c Config) Build(name string) Channel {
	cc, ok := c.Channels[name]
	if !ok {
		return nil
	}
	switch cc.Type {
	case "slack":
		if cc.URL == "" {
			return nil
		}
		return &SlackChannel{WebhookURL: cc.URL}
	case "webhook":
		if cc.URL == "" {
			return nil
		}
		return &WebhookChannel{Endpoint: cc.URL, Secret: cc.Secret}
	case "email":
		if cc.Addr == "" || len(cc.To) == 0 {
			return nil
		}
		return &EmailChannel{
			Addr:     cc.Addr,
			Host:     cc.Host,
			From:     cc.From,
			To:       cc.To,
			Username: cc.Username,
			Password: cc.Password,
		}
	}
	return nil
}

// Resolver returns a lookup over the configured channels that skips names
// without a usable transport.
func (c Config) Resolver() func(names []string) []Channel {
	return func(names []string) []Channel {
		var out []Channel
		for _, n := range names {
			if ch := c.Build(n); ch != nil {
				out = append(out, ch)
			}
		}
		return out
	}
}
