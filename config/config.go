// Package config loads and saves the TOML session file a loader or the
// inspector server reads before building a duocore.System: which
// regions populate the memory map, how many instructions each core
// runs per step batch, and which example devices get wired in.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the root of a session's on-disk configuration.
type Config struct {
	Execution struct {
		Arm9Budget     uint64 `toml:"arm9_step_budget"`      // 0 = unbounded
		Arm11Budget    uint64 `toml:"arm11_step_budget"`     // 0 = unbounded
		StepBatch      uint64 `toml:"step_batch"`            // instructions per hwGuard hold
		HandshakeSteps uint64 `toml:"handshake_steps"`       // ARM9 steps before ARM11 starts
	} `toml:"execution"`

	// MemoryMap lists the regions a loader maps into the controller
	// before reset. Region.Backing names which mem.Backing to install;
	// "ram" allocates a plain RAM block, anything else must match a
	// name under Devices.
	MemoryMap []Region `toml:"memory_map"`

	Devices DeviceConfig `toml:"devices"`

	Inspector struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"inspector"`
}

// Region describes one mem.Controller mapping.
type Region struct {
	Name    string `toml:"name"`
	Base    uint32 `toml:"base"`
	Size    uint32 `toml:"size"`
	Backing string `toml:"backing"` // "ram", "timer", "dma", "crypto"
}

// DeviceConfig toggles and places the example peripherals in the
// devices package. The toggles decide which device names a
// MemoryMap Region.Backing may use; no field here maps a region, so
// the memory layout stays declared in one place. The framebuffer
// addresses are guest addresses that the framebuffer export reads.
type DeviceConfig struct {
	Timer               bool   `toml:"timer"`
	DMA                 bool   `toml:"dma"`
	Crypto              bool   `toml:"crypto"`
	Framebuffer         bool   `toml:"framebuffer"`
	FramebufferTop      uint32 `toml:"framebuffer_top_addr"`
	FramebufferBottom   uint32 `toml:"framebuffer_bottom_addr"`
	FramebufferWidth    int    `toml:"framebuffer_width"`
	FramebufferHeight   int    `toml:"framebuffer_height"`
	FramebufferBpp      int    `toml:"framebuffer_bpp"`
}

// DefaultConfig returns a configuration matching the layout used by
// the bundled example session: a boot ROM, main RAM, and all four
// example devices, sized the way a small ARM9/ARM11 SoC's memory map
// commonly is.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.Arm9Budget = 0
	cfg.Execution.Arm11Budget = 0
	cfg.Execution.StepBatch = 256
	cfg.Execution.HandshakeSteps = 1

	cfg.MemoryMap = []Region{
		{Name: "bootrom", Base: 0x00000000, Size: 0x00010000, Backing: "ram"},
		{Name: "mainram", Base: 0x08000000, Size: 0x08000000, Backing: "ram"},
		{Name: "timer", Base: 0x10003000, Size: 0x1000, Backing: "timer"},
		{Name: "dma", Base: 0x10004000, Size: 0x1000, Backing: "dma"},
		{Name: "crypto", Base: 0x10005000, Size: 0x1000, Backing: "crypto"},
	}

	cfg.Devices.Timer = true
	cfg.Devices.DMA = true
	cfg.Devices.Crypto = true
	cfg.Devices.Framebuffer = true
	cfg.Devices.FramebufferTop = 0x08100000
	cfg.Devices.FramebufferBottom = 0x08200000
	cfg.Devices.FramebufferWidth = 240
	cfg.Devices.FramebufferHeight = 400
	cfg.Devices.FramebufferBpp = 3

	cfg.Inspector.Enabled = false
	cfg.Inspector.Addr = "127.0.0.1:9944"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "armduo")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "armduo")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back
// to DefaultConfig if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config file path
	if err != nil {
		return fmt.Errorf("config: failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode: %w", err)
	}

	return nil
}
