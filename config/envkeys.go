package config

import (
	"strings"

	"github.com/spf13/viper"
)

// bindEnv sets every variable of environ under each key it may address.
// Variables without prefix are skipped when one is given.
func bindEnv(v *viper.Viper, environ []string, prefix string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			key = strings.TrimPrefix(key, prefix)
		}
		for _, k := range envKeyVariants(key) {
			v.Set(k, value)
		}
	}
}

// envKeyVariants lists the config keys an environment variable may set.
// Single underscores are ambiguous between nesting and a word break, so
// every split is produced; a double underscore always nests.
//
//	NAME -> [name]
//	DATABASE_MAX_RETRIES -> [database_max_retries database.max.retries
//	                         database.max_retries database_max.retries]
//	CONNECTIONSTRINGS__ECOMMERCECONNECTION -> [connectionstrings.ecommerceconnection]
func envKeyVariants(envKey string) []string {
	key := strings.ToLower(envKey)
	if strings.Contains(key, "__") {
		return []string{strings.ReplaceAll(key, "__", ".")}
	}
	parts := strings.Split(key, "_")
	if len(parts) == 1 {
		return []string{key}
	}

	variants := []string{key, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants,
			strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"),
			strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."),
		)
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, k := range variants {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
