package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadAppliesEnvOverlay checks that an env-file overlay overrides the
// YAML file's role and secret_file, matching the "environment wins" rule.
func TestLoadAppliesEnvOverlay(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "l2tund.yaml")
	yamlBody := "role: client\nsecret_file: /etc/l2tund/secret\npeer_addr: 10.0.0.1:9000\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("WriteFile yaml: %v", err)
	}

	envPath := filepath.Join(dir, "l2tund.env")
	envBody := "L2TUND_ROLE=server\nL2TUND_SECRET_FILE=/run/secrets/l2tund\n"
	if err := os.WriteFile(envPath, []byte(envBody), 0o600); err != nil {
		t.Fatalf("WriteFile env: %v", err)
	}

	cfg, err := Load(yamlPath, envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Role != "server" {
		t.Errorf("Role = %q, want %q (env overlay should win)", cfg.Role, "server")
	}
	if cfg.SecretFile != "/run/secrets/l2tund" {
		t.Errorf("SecretFile = %q, want env override", cfg.SecretFile)
	}
}

// TestValidateRequiresPeerAddrForClient checks that a client config with no
// peer address fails validation rather than starting and hanging forever.
func TestValidateRequiresPeerAddrForClient(t *testing.T) {
	cfg := Default()
	cfg.Role = "client"
	cfg.PeerAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted a client config with no peer_addr")
	}
}

// TestValidateRejectsUnknownRole checks that a typo'd role is caught
// rather than silently defaulting to one behaviour or the other.
func TestValidateRejectsUnknownRole(t *testing.T) {
	cfg := Default()
	cfg.Role = "relay"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted role %q", cfg.Role)
	}
}

// TestOverlayResolveRoundTrip checks that dotted-IPv4 overlay settings
// resolve to the expected packed uint32 form, with empty fields zeroing.
func TestOverlayResolveRoundTrip(t *testing.T) {
	o := OverlayConfig{
		NetAddr:   "10.0.0.1",
		NetMask:   "255.255.255.0",
		DefaultGW: "10.0.0.254",
		MTU:       1500,
		DNS1:      "8.8.8.8",
	}
	resolved, err := o.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.NetAddr != 0x0A000001 {
		t.Errorf("NetAddr = 0x%08X, want 0x0A000001", resolved.NetAddr)
	}
	if resolved.NetMask != 0xFFFFFF00 {
		t.Errorf("NetMask = 0x%08X, want 0xFFFFFF00", resolved.NetMask)
	}
	if resolved.DNS2 != 0 {
		t.Errorf("DNS2 = 0x%08X, want 0 for an unset field", resolved.DNS2)
	}
}

// TestOverlayResolveRejectsInvalidAddress checks that a malformed dotted
// address is reported rather than silently truncated.
func TestOverlayResolveRejectsInvalidAddress(t *testing.T) {
	o := OverlayConfig{NetAddr: "not-an-ip"}
	if _, err := o.Resolve(); err == nil {
		t.Fatalf("Resolve accepted invalid address %q", o.NetAddr)
	}
}
