package cli

import (
	"encoding/json"
	"os"
	"time"

	"github.com/croplabs/picstore/internal/flagx"
	"github.com/croplabs/picstore/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	Token     string         `json:"token"`
	Timeout   timex.Duration `json:"timeout"`
}

// parseJson loads configuration values from a JSON file selected via the
// -c or -config flags. An explicitly requested config that cannot be read
// is a startup error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		ServerURL: config.ServerURL,
		Token:     config.Token,
		Timeout:   timex.Duration{Duration: config.Timeout},
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ServerURL = c.ServerURL
	config.Token = c.Token
	config.Timeout = time.Duration(c.Timeout.Duration)
}
