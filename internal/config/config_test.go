package config

import (
	"testing"

	"github.com/kirannarayanak/vyra"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VYRA_CHAIN_ID", "")
	t.Setenv("VYRA_PORT", "")
	t.Setenv("VYRA_RPC_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.ChainID != vyra.LocalDev.ChainID {
		t.Errorf("chain id = %d, want local dev default", cfg.ChainID)
	}
	if cfg.RPCURL != vyra.LocalDev.RPCURL {
		t.Errorf("rpc url = %q, want network default", cfg.RPCURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VYRA_CHAIN_ID", "11155111")
	t.Setenv("VYRA_PORT", "9000")
	t.Setenv("VYRA_RPC_URL", "http://rpc.internal:8545")
	t.Setenv("VYRA_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.ChainID != 11155111 || cfg.Port != "9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}

	network, err := cfg.Network()
	if err != nil {
		t.Fatalf("Network error = %v", err)
	}
	if network.RPCURL != "http://rpc.internal:8545" {
		t.Errorf("network rpc url = %q, override not applied", network.RPCURL)
	}
	if network.ChainID != 11155111 {
		t.Errorf("network chain id = %d", network.ChainID)
	}
}

func TestLoadRejectsBadChainID(t *testing.T) {
	t.Setenv("VYRA_CHAIN_ID", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("malformed chain id accepted")
	}

	t.Setenv("VYRA_CHAIN_ID", "424242")
	if _, err := Load(); err == nil {
		t.Error("unknown chain id accepted")
	}
}
