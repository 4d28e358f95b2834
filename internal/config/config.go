// Package config loads service configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kirannarayanak/vyra"
)

// Config is the vyrad service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// ChainID selects the network deployment.
	ChainID int64

	// RPCURL overrides the network's default JSON-RPC endpoint.
	RPCURL string

	// PrivateKey is the hex-encoded operator key. Optional; without it the
	// service runs read-only.
	PrivateKey string

	// LogLevel is a logrus level name.
	LogLevel string

	// AllowedOrigins is the CORS allowlist. "*" allows any origin.
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	chainID, err := strconv.ParseInt(getEnv("VYRA_CHAIN_ID", "31337"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("VYRA_CHAIN_ID: %w", err)
	}
	network, err := vyra.GetNetworkConfig(chainID)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("VYRA_PORT", "8080"),
		ChainID:        chainID,
		RPCURL:         getEnv("VYRA_RPC_URL", network.RPCURL),
		PrivateKey:     os.Getenv("VYRA_PRIVATE_KEY"),
		LogLevel:       getEnv("VYRA_LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("VYRA_ALLOWED_ORIGINS", "*")),
	}
	return cfg, nil
}

// Network resolves the configured chain's deployment record with the RPC
// endpoint override applied.
func (c *Config) Network() (vyra.NetworkConfig, error) {
	network, err := vyra.GetNetworkConfig(c.ChainID)
	if err != nil {
		return vyra.NetworkConfig{}, err
	}
	if c.RPCURL != "" {
		network.RPCURL = c.RPCURL
	}
	return network, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
