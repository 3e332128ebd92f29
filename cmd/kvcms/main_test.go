package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCommandPrintsEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "project_key: shop\ncommerce:\n  base_url: https://api.example.com\n  token: secret\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if strings.Contains(out.String(), "secret") {
		t.Fatalf("token leaked in output: %s", out.String())
	}
	var printed map[string]any
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if printed["ProjectKey"] != "shop" {
		t.Fatalf("expected project key shop, got %v", printed["ProjectKey"])
	}
}

func TestConfigCommandRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  provider: postgres\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "--config", path})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}
