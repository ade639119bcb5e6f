// internal/pkg/jwt/loader.go
package jwt

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type Config struct {
	PrivPath string
	PubPath  string // optional, derived from the private key when absent
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild reads the key pair and builds a matching generator and verifier.
func LoadAndBuild(cfg Config) (*Manager, error) {
	priv, err := LoadRSAPrivateKeyFromPEM(cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key from %s: %w", cfg.PrivPath, err)
	}

	pub := &priv.PublicKey
	if cfg.PubPath != "" {
		loaded, err := LoadRSAPublicKeyFromPEM(cfg.PubPath)
		switch {
		case err == nil:
			if !loaded.Equal(pub) {
				return nil, fmt.Errorf("public key %s does not match private key %s", cfg.PubPath, cfg.PrivPath)
			}
			pub = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to load public key from %s: %w", cfg.PubPath, err)
		}
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}
