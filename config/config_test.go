package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Execution.StepBatch != 256 {
		t.Errorf("Expected StepBatch=256, got %d", cfg.Execution.StepBatch)
	}
	if cfg.Execution.HandshakeSteps != 1 {
		t.Errorf("Expected HandshakeSteps=1, got %d", cfg.Execution.HandshakeSteps)
	}
	if len(cfg.MemoryMap) == 0 {
		t.Fatal("Expected a non-empty default memory map")
	}
	if cfg.MemoryMap[0].Name != "bootrom" {
		t.Errorf("Expected first region to be bootrom, got %s", cfg.MemoryMap[0].Name)
	}
	if !cfg.Devices.Timer || !cfg.Devices.DMA || !cfg.Devices.Crypto || !cfg.Devices.Framebuffer {
		t.Error("Expected all example devices enabled by default")
	}
	if cfg.Inspector.Enabled {
		t.Error("Expected Inspector.Enabled=false by default")
	}
	if cfg.Inspector.Addr == "" {
		t.Error("Expected a non-empty default inspector address")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "armduo" && path != "config.toml" {
			t.Errorf("Expected path in armduo directory or fallback, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Execution.StepBatch = 512
	cfg.Execution.Arm9Budget = 1000
	cfg.Inspector.Enabled = true
	cfg.Inspector.Addr = "127.0.0.1:1234"
	cfg.MemoryMap = append(cfg.MemoryMap, Region{Name: "extra", Base: 0x20000000, Size: 0x1000, Backing: "ram"})

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Execution.StepBatch != 512 {
		t.Errorf("Expected StepBatch=512, got %d", loaded.Execution.StepBatch)
	}
	if loaded.Execution.Arm9Budget != 1000 {
		t.Errorf("Expected Arm9Budget=1000, got %d", loaded.Execution.Arm9Budget)
	}
	if !loaded.Inspector.Enabled {
		t.Error("Expected Inspector.Enabled=true")
	}
	if loaded.Inspector.Addr != "127.0.0.1:1234" {
		t.Errorf("Expected Inspector.Addr=127.0.0.1:1234, got %s", loaded.Inspector.Addr)
	}
	found := false
	for _, r := range loaded.MemoryMap {
		if r.Name == "extra" && r.Base == 0x20000000 {
			found = true
		}
	}
	if !found {
		t.Error("Expected the appended memory region to round-trip")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Execution.StepBatch != 256 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[execution]
step_batch = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}
