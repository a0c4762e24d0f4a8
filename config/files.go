package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// FileSystem abstracts the file lookups of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv sets the variables of a .env file without overriding variables
// already present in the environment.
func (osFS) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Files are the sources found for a service. Empty fields were not found.
type Files struct {
	// Base is config.yml or appsettings.json.
	Base string
	// Overlay is the environment-specific file merged over Base, e.g.
	// appsettings.Production.json next to appsettings.json.
	Overlay string
	Env     string
}

// Locator finds the configuration files of a service.
type Locator struct {
	FS FileSystem
}

// Locate searches the standard locations for the files of service. The
// short name is the part after the last dash, so "ecommerce-orders" also
// matches cmd/orders.
func (l *Locator) Locate(service, environment string) Files {
	var f Files
	for _, dir := range searchDirs(service) {
		for _, name := range []string{"config.yml", "appsettings.json"} {
			if p := join(dir, name); l.FS.Exists(p) {
				f.Base = p
				break
			}
		}
		if f.Base != "" {
			break
		}
	}
	f.Overlay = l.overlay(f.Base, environment)

	for _, name := range []string{".env." + service, ".env"} {
		for _, dir := range searchDirs(service) {
			if p := join(dir, name); l.FS.Exists(p) {
				f.Env = p
				return f
			}
		}
	}
	return f
}

// overlay returns the environment variant of base if it exists:
// config.yml -> config.production.yml, appsettings.json ->
// appsettings.Production.json.
func (l *Locator) overlay(base, environment string) string {
	if base == "" || environment == "" {
		return ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for _, env := range []string{environment, titleCase(environment)} {
		if p := stem + "." + env + ext; l.FS.Exists(p) {
			return p
		}
	}
	return ""
}

func searchDirs(service string) []string {
	names := []string{service}
	if i := strings.LastIndex(service, "-"); i != -1 {
		names = append(names, service[i+1:])
	}

	var dirs []string
	for _, up := range []string{".", "..", "../.."} {
		for _, n := range names {
			dirs = append(dirs, up+"/cmd/"+n)
		}
	}
	for _, up := range []string{".", ".."} {
		for _, n := range names {
			dirs = append(dirs, up+"/config/"+n)
		}
		dirs = append(dirs, up+"/config")
	}
	return append(dirs, ".", "..")
}

func join(dir, name string) string {
	return dir + "/" + name
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
