package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a YAML file and environment variables.
// When file is non-empty it is read directly and must exist; otherwise
// configName is searched for in configPath, "." and "./config", and a
// missing file is not an error.
func Load(file, configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return v, nil // rely on env vars and defaults
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}
