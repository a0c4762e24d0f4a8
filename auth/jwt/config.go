package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
	RS384 SigningMethod = "RS384"
	RS512 SigningMethod = "RS512"
	ES256 SigningMethod = "ES256"
	ES384 SigningMethod = "ES384"
	ES512 SigningMethod = "ES512"
)

// Config configures the JWT authentication scheme. It maps to the
// "authentication" section of the service configuration.
type Config struct {
	// Key is the symmetric signing key (required for HS* methods).
	Key string `mapstructure:"key"`

	// Issuer is the expected and issued "iss" claim.
	Issuer string `mapstructure:"issuer"`

	// Audience is the expected and issued "aud" claim.
	Audience string `mapstructure:"audience"`

	// Method is the signing algorithm (default: HS256).
	Method SigningMethod `mapstructure:"method"`

	// PrivateKey is the RSA or ECDSA private key (required for RS*/ES* methods).
	PrivateKey interface{} `mapstructure:"-"`

	// PublicKey verifies RS*/ES* tokens. Derived from PrivateKey when unset.
	PublicKey interface{} `mapstructure:"-"`

	// AccessTokenTTL is the lifetime of issued tokens (default: 15m).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// ClockSkew is the leeway applied to exp/nbf/iat checks (default: 0).
	ClockSkew time.Duration `mapstructure:"clock_skew"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
}

// Validate checks required fields based on the signing method.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
		if c.Key == "" {
			return errors.New("key is required for HMAC signing methods")
		}
	case RS256, RS384, RS512:
		if _, ok := c.PrivateKey.(*rsa.PrivateKey); !ok {
			if _, ok := c.PublicKey.(*rsa.PublicKey); !ok {
				return errors.New("an RSA private or public key is required for RSA signing methods")
			}
		}
	case ES256, ES384, ES512:
		if _, ok := c.PrivateKey.(*ecdsa.PrivateKey); !ok {
			if _, ok := c.PublicKey.(*ecdsa.PublicKey); !ok {
				return errors.New("an ECDSA private or public key is required for ECDSA signing methods")
			}
		}
	default:
		return errors.New("unsupported signing method: " + string(c.Method))
	}
	if c.AccessTokenTTL < 0 {
		return errors.New("access_token_ttl must not be negative")
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	if m := gojwt.GetSigningMethod(string(c.Method)); m != nil {
		return m
	}
	return gojwt.SigningMethodHS256
}

func (c *Config) isHMAC() bool {
	switch c.Method {
	case HS256, HS384, HS512:
		return true
	}
	return false
}

func (c *Config) signKey() interface{} {
	if c.isHMAC() {
		return []byte(c.Key)
	}
	return c.PrivateKey
}

func (c *Config) verifyKey() interface{} {
	if c.isHMAC() {
		return []byte(c.Key)
	}
	if c.PublicKey != nil {
		return c.PublicKey
	}
	switch pk := c.PrivateKey.(type) {
	case *rsa.PrivateKey:
		return &pk.PublicKey
	case *ecdsa.PrivateKey:
		return &pk.PublicKey
	}
	return c.PrivateKey
}
