package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/twincore/armduo/api"
	"github.com/twincore/armduo/config"
	"github.com/twincore/armduo/cpu"
	"github.com/twincore/armduo/debugbridge"
	"github.com/twincore/armduo/devices"
	"github.com/twincore/armduo/duocore"
	"github.com/twincore/armduo/mem"
)

// Version information, overridable at build time:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		showHelp       = flag.Bool("help", false, "Show help information")
		configPath     = flag.String("config", "", "Session config file (default: platform config dir)")
		imagePath      = flag.String("image", "", "Raw binary loaded at guest address 0")
		inspector      = flag.Bool("inspector", false, "Force-enable the inspector HTTP/WebSocket server")
		inspectorAddr  = flag.String("inspector-addr", "", "Override the inspector listen address (host:port)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("armduo %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *inspector {
		cfg.Inspector.Enabled = true
	}
	if *inspectorAddr != "" {
		cfg.Inspector.Addr = *inspectorAddr
	}

	m, fb, err := buildMemory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building memory map: %v\n", err)
		os.Exit(1)
	}

	if *imagePath != "" {
		if err := loadImage(m, *imagePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
			os.Exit(1)
		}
	}

	sys := duocore.NewSystem(cpu.NewCore(cpu.New(m)), cpu.NewCore(cpu.New(m)))
	sys.StepBatch = cfg.Execution.StepBatch
	sys.HandshakeSteps = cfg.Execution.HandshakeSteps

	bridges := map[duocore.CoreID]*debugbridge.Bridge{
		duocore.ARM9:  debugbridge.New(sys, duocore.ARM9),
		duocore.ARM11: debugbridge.New(sys, duocore.ARM11),
	}

	sys.Start()

	var inspectorSrv *api.Server
	if cfg.Inspector.Enabled {
		inspectorSrv = api.NewServer(cfg.Inspector.Addr, bridges, fb)
		go func() {
			if err := inspectorSrv.Start(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "inspector error: %v\n", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			sys.Stop()
			if inspectorSrv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := inspectorSrv.Shutdown(ctx); err != nil {
					fmt.Fprintf(os.Stderr, "inspector shutdown error: %v\n", err)
				}
			}
		})
	}

	<-sigChan
	fmt.Println("\nShutting down...")
	shutdown()

	report := sys.Join()
	for _, id := range []duocore.CoreID{duocore.ARM9, duocore.ARM11} {
		fmt.Printf("%s: PC=0x%08X LR=0x%08X", id, report.LastPC[id], report.LastLR[id])
		if report.Err[id] != nil {
			fmt.Printf(" error=%v", report.Err[id])
		}
		fmt.Println()
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// buildMemory wires a mem.Controller from cfg.MemoryMap: RAM-backed
// regions get a fresh mem.NewRAM, device-backed regions resolve
// against the example devices in devices, built once up front so a
// DMA engine configured before its crypto region appears later in the
// list can still see it.
func buildMemory(cfg *config.Config) (*mem.Controller, *devices.Framebuffer, error) {
	m := mem.NewController()

	backings := make(map[string]mem.Device)

	var crypto *devices.Crypto
	if cfg.Devices.Crypto {
		crypto = devices.NewCrypto()
		backings["crypto"] = crypto
	}
	if cfg.Devices.Timer {
		backings["timer"] = devices.NewSharedTimer()
	}
	if cfg.Devices.DMA {
		var bus devices.CryptoBus
		if crypto != nil {
			bus = crypto.AsBus()
		}
		backings["dma"] = devices.NewDMA(m, bus)
	}

	for _, region := range cfg.MemoryMap {
		if region.Backing == "ram" {
			if err := m.MapRegion(region.Name, region.Base, region.Size, mem.NewRAM(region.Size)); err != nil {
				return nil, nil, fmt.Errorf("main: mapping %s: %w", region.Name, err)
			}
			continue
		}
		dev, ok := backings[region.Backing]
		if !ok {
			return nil, nil, fmt.Errorf("main: region %s names unconfigured backing %q", region.Name, region.Backing)
		}
		if err := m.MapRegion(region.Name, region.Base, region.Size, dev); err != nil {
			return nil, nil, fmt.Errorf("main: mapping %s: %w", region.Name, err)
		}
	}

	var fb *devices.Framebuffer
	if cfg.Devices.Framebuffer {
		format := devices.FramebufferFormat{
			Width:         cfg.Devices.FramebufferWidth,
			Height:        cfg.Devices.FramebufferHeight,
			BytesPerPixel: cfg.Devices.FramebufferBpp,
		}
		fb = devices.NewFramebuffer(m, cfg.Devices.FramebufferTop, cfg.Devices.FramebufferBottom, format)
	}

	return m, fb, nil
}

// loadImage writes a raw file into guest memory at address 0. This is
// a convenience for running a small test payload; the actual loader
// contract (boot9/boot11/OTP/NAND/SD/CID/key-database blobs) is an
// external collaborator per spec.md and out of scope here.
func loadImage(m *mem.Controller, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified image path
	if err != nil {
		return fmt.Errorf("main: reading %s: %w", path, err)
	}
	if err := m.WriteBuf(0, data); err != nil {
		return fmt.Errorf("main: writing image into memory: %w", err)
	}
	return nil
}

func printHelp() {
	fmt.Printf(`armduo %s

Usage: armduo [options]

Options:
  -help               Show this help message
  -version            Show version information
  -config PATH        Session config file (default: platform config dir)
  -image PATH         Raw binary loaded at guest address 0
  -inspector          Force-enable the inspector HTTP/WebSocket server
  -inspector-addr A   Override the inspector listen address (host:port)

The inspector, once enabled (by config or -inspector), serves:
  GET  /health
  GET  /api/v1/ws                                    event stream
  POST /api/v1/core/{ARM9,ARM11}/pause
  POST /api/v1/core/{ARM9,ARM11}/resume
  POST /api/v1/core/{ARM9,ARM11}/step           {"count": N}
  GET  /api/v1/core/{ARM9,ARM11}/registers
  PUT  /api/v1/core/{ARM9,ARM11}/registers      {"index": I, "value": V}
  GET  /api/v1/core/{ARM9,ARM11}/memory?address=&length=
  PUT  /api/v1/core/{ARM9,ARM11}/memory         {"address": A, "data": [...]}
  POST /api/v1/core/{ARM9,ARM11}/breakpoint     {"address": A}
  DEL  /api/v1/core/{ARM9,ARM11}/breakpoint?address=A
  GET  /api/v1/core/{ARM9,ARM11}/breakpoints
  GET  /api/v1/framebuffer/top
  GET  /api/v1/framebuffer/bottom

Examples:
  armduo -image boot9.bin
  armduo -inspector -inspector-addr 127.0.0.1:9944 -image boot9.bin
`, Version)
}
