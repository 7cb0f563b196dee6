package config

import (
	"os"
	"strings"

	"github.com/habiliai/agentrouter/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

func resolveConfig[T any](config *T, testing bool) error {
	if config == nil {
		return errors.New("config is nil")
	}

	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(".env"); err != nil {
			return errors.Wrapf(err, "failed to load .env")
		}
	}

	if testing {
		filename := ".env.test"
		if v := os.Getenv("ENV_TEST_FILE"); v != "" {
			filename = v
		}
		if _, err := os.Stat(filename); !os.IsNotExist(err) {
			if err := godotenv.Overload(filename); err != nil {
				return errors.Wrapf(err, "failed to load %s", filename)
			}
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "env",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           config,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create config decoder")
	}

	if err := decoder.Decode(environ()); err != nil {
		return errors.Wrapf(err, "failed to load config")
	}

	return nil
}

// environ returns the non-empty process environment as a map so that unset
// and blank variables keep their defaults.
func environ() map[string]any {
	env := make(map[string]any)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		env[key] = value
	}
	return env
}
