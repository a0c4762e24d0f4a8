package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/kbukum/ecommerce-shared/logger"
)

// environmentVars select the overlay file when the base file does not name
// the environment. ASPNETCORE_ENVIRONMENT keeps existing deployments working.
var environmentVars = []string{"ENVIRONMENT", "ASPNETCORE_ENVIRONMENT"}

type loaderOptions struct {
	fs        FileSystem
	base      string
	env       string
	envPrefix string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*loaderOptions)

// WithFileSystem replaces the operating system file lookups.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(o *loaderOptions) { o.fs = fs }
}

// WithConfigFile loads path instead of searching for a config file.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.base = path }
}

// WithEnvFile loads path instead of searching for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.env = path }
}

// WithEnvPrefix only binds environment variables starting with prefix and
// an underscore, with the prefix removed: ORDERS_DATABASE_DRIVER sets
// database.driver for prefix "ORDERS".
func WithEnvPrefix(prefix string) LoaderOption {
	return func(o *loaderOptions) { o.envPrefix = strings.ToUpper(prefix) + "_" }
}

// LoadConfig fills cfg for service from, in increasing precedence: the base
// config file, its environment overlay and the environment (including the
// .env file). Keys are case-insensitive. Missing files are not an error.
func LoadConfig(service string, cfg interface{}, opts ...LoaderOption) error {
	o := loaderOptions{fs: osFS{}}
	for _, opt := range opts {
		opt(&o)
	}

	found := (&Locator{FS: o.fs}).Locate(service, "")
	if o.env == "" {
		o.env = found.Env
	}
	if o.env != "" && o.fs.Exists(o.env) {
		if err := o.fs.LoadEnv(o.env); err != nil {
			warn("Failed to load env file", o.env, err)
		}
	}

	base := o.base
	if base == "" {
		base = found.Base
	}

	v := viper.New()
	if base != "" && o.fs.Exists(base) {
		v.SetConfigFile(base)
		if err := v.ReadInConfig(); err != nil {
			warn("Failed to load config file", base, err)
		}
		overlay := (&Locator{FS: o.fs}).overlay(base, environment(v))
		if overlay != "" {
			v.SetConfigFile(overlay)
			if err := v.MergeInConfig(); err != nil {
				warn("Failed to merge config overlay", overlay, err)
			}
		}
	}

	bindEnv(v, os.Environ(), o.envPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", service, err)
	}
	return nil
}

func environment(v *viper.Viper) string {
	for _, name := range environmentVars {
		if env := os.Getenv(name); env != "" {
			return env
		}
	}
	return v.GetString("environment")
}

func warn(msg, file string, err error) {
	logger.GetGlobalLogger().Warn(msg, map[string]interface{}{
		"file":            file,
		logger.FieldError: err.Error(),
	})
}
