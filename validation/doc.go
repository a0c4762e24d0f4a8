// Package validation validates configuration and input structs with
// go-playground/validator struct tags.
//
//	type Config struct {
//	    Driver string `mapstructure:"driver" validate:"oneof=sqlserver postgres sqlite"`
//	}
//	err := validation.Struct(cfg)
//
// Fields are reported by their mapstructure key (falling back to the json key)
// so messages match the keys used in config.yml.
package validation
