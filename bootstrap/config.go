package bootstrap

import (
	"fmt"

	"github.com/kbukum/ecommerce-shared/auth/jwt"
	"github.com/kbukum/ecommerce-shared/config"
	"github.com/kbukum/ecommerce-shared/database"
	"github.com/kbukum/ecommerce-shared/observability"
	"github.com/kbukum/ecommerce-shared/server"
)

// SharedConfig is the configuration every e-commerce service loads. Services
// embed it to add their own sections:
//
//	type ProductsConfig struct {
//	    bootstrap.SharedConfig `mapstructure:",squash"`
//	    Catalog CatalogConfig `mapstructure:"catalog"`
//	}
type SharedConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// ConnectionStrings is the top-level connection string table
	// (appsettings.json layout). It fills Database.ConnectionStrings when
	// that is empty.
	ConnectionStrings map[string]string `yaml:"connection_strings" mapstructure:"connectionstrings"`

	Database       database.Config `yaml:"database" mapstructure:"database"`
	Authentication jwt.Config      `yaml:"authentication" mapstructure:"authentication"`
	Server         server.Config   `yaml:"server" mapstructure:"server"`

	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills defaults for every section. The database is enabled
// implicitly when a connection string or DSN is configured.
func (c *SharedConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if len(c.Database.ConnectionStrings) == 0 && len(c.ConnectionStrings) > 0 {
		c.Database.ConnectionStrings = c.ConnectionStrings
	}
	if len(c.Database.ConnectionStrings) > 0 || c.Database.DSN != "" {
		c.Database.Enabled = true
	}
	c.Database.ApplyDefaults()
	c.Authentication.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// AuthenticationEnabled reports whether a signing or verification key is
// configured.
func (c *SharedConfig) AuthenticationEnabled() bool {
	a := c.Authentication
	return a.Key != "" || a.PrivateKey != nil || a.PublicKey != nil
}

// Validate checks every section.
func (c *SharedConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("config.database: %w", err)
	}
	if c.AuthenticationEnabled() {
		if err := c.Authentication.Validate(); err != nil {
			return fmt.Errorf("config.authentication: %w", err)
		}
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
