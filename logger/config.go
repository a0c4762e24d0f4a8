package logger

import "fmt"

// Config contains logging configuration.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// Level is the minimum level for the console and file sinks.
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`

	// DebugOutput is the destination of the debug stream: stderr, stdout or discard.
	DebugOutput string `yaml:"debug_output" mapstructure:"debug_output"`

	File FileConfig `yaml:"file" mapstructure:"file"`
}

// FileConfig configures the daily rolling file sink.
type FileConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Path is the file name prefix; the day and Extension are appended.
	Path       string `yaml:"path" mapstructure:"path"`
	Extension  string `yaml:"extension" mapstructure:"extension"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // megabytes
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // number of backups
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	LocalTime  bool   `yaml:"local_time" mapstructure:"local_time"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.DebugOutput == "" {
		c.DebugOutput = "stderr"
	}
	if c.File.Extension == "" {
		c.File.Extension = ".text"
	}
	if c.File.MaxSize == 0 {
		c.File.MaxSize = 100
	}
	if c.File.MaxBackups == 0 {
		c.File.MaxBackups = 3
	}
	if c.File.MaxAge == 0 {
		c.File.MaxAge = 28
	}
	c.Timestamp = true
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "trace"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{"json", "console", "text"}
	if !contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	validDebug := []string{"stderr", "stdout", "discard"}
	if !contains(validDebug, c.DebugOutput) {
		return fmt.Errorf("logging.debug_output must be one of %v (got: %s)", validDebug, c.DebugOutput)
	}
	if c.File.Enabled && c.File.Path == "" {
		return fmt.Errorf("logging.file.path is required when the file sink is enabled")
	}
	return nil
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
