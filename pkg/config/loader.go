package config

import (
	"errors"

	"github.com/kkyr/fig"
)

const EnvPrefix = "WEBPROXY"

const configFile = "webproxy.yaml"

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom dir with the configuration file.
// Reads and puts environment variables with the prefix WEBPROXY_.
// Params from the config should be in uppercase separated with _.
// When no config file is found, the defaults with the environment
// overrides are used.
func LoadConfig(config any, path string) error {
	dirs := []string{path}
	if path == "" {
		dirs = append(dirs, ".", "configs", "../../configs")
	}
	err := fig.Load(config, fig.File(configFile), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		return LoadConfigEnv(config)
	}
	return err
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}
