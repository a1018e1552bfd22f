// cmd/batchlink/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/cloud"
	"github.com/tamzrod/batchlink/internal/config"
	"github.com/tamzrod/batchlink/internal/loop"
	"github.com/tamzrod/batchlink/internal/plc"
	"github.com/tamzrod/batchlink/internal/printer"
	"github.com/tamzrod/batchlink/internal/status"
	"github.com/tamzrod/batchlink/internal/workflow"
)

func main() {
	configPath := flag.String("config", "batchlink.yaml", "configuration file path")
	testConfig := flag.Bool("test-config", false, "validate config and probe all links, then exit")
	createConfig := flag.String("create-config", "", "write a sample config to the given path and exit")
	serviceCmd := flag.String("service", "", "service control: install, uninstall, start, stop, restart, status, run")
	flag.Parse()

	if *createConfig != "" {
		if err := config.WriteSample(*createConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("sample configuration written to %s\n", *createConfig)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	initLogging(cfg.Bridge.LogLevel)
	defer func() { _ = zap.L().Sync() }()

	if *testConfig {
		if err := testConnections(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "connectivity test failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("configuration and connectivity OK")
		return
	}

	if *serviceCmd != "" && *serviceCmd != "run" {
		handleServiceCommand(*serviceCmd)
		return
	}

	if !service.Interactive() || *serviceCmd == "run" {
		runAsService(cfg)
		return
	}

	// Foreground mode: run until the process is signaled.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runBridge(ctx, cfg); err != nil {
		zap.S().Fatalw("bridge failed", "err", err)
	}
}

// initLogging builds the global zap logger from the configured level.
func initLogging(level string) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
}

// runBridge wires all components and drives the control loop until the
// context is canceled.
func runBridge(ctx context.Context, cfg *config.Config) error {
	b := cfg.Bridge

	// ---- PLC register transport ----
	bus, err := plc.New(plc.Config{
		Endpoint: b.PLC.Endpoint,
		UnitID:   b.PLC.UnitID,
		Timeout:  time.Duration(b.PLC.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("plc connect: %w", err)
	}
	defer bus.Close()

	board := status.NewCoordinator(bus)

	// A previous run may have died mid-workflow; start from idle.
	if err := board.Reset(); err != nil {
		return fmt.Errorf("plc reset: %w", err)
	}

	// ---- cloud source ----
	source, err := cloud.New(cloud.Config{
		URL:           b.Cloud.URL,
		Timeout:       time.Duration(b.Cloud.TimeoutMs) * time.Millisecond,
		RetryAttempts: b.Cloud.Retry.Attempts,
		RetryDelay:    time.Duration(b.Cloud.Retry.DelayMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	// ---- printhead pair ----
	heads, err := printer.NewDual(printer.Config{
		Host:          b.Printer.Host,
		Head1Port:     b.Printer.Head1Port,
		Head2Port:     b.Printer.Head2Port,
		Timeout:       time.Duration(b.Printer.TimeoutMs) * time.Millisecond,
		CommandDelay:  time.Duration(b.Printer.CommandDelayMs) * time.Millisecond,
		RetryAttempts: b.Printer.Retry.Attempts,
		RetryDelay:    time.Duration(b.Printer.Retry.DelayMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	policy := workflow.CapacityTruncate
	if b.CapacityPolicy == "strict" {
		policy = workflow.CapacityStrict
	}

	syncWF := workflow.NewSync(board, source, policy)
	loadWF := workflow.NewLoad(board, heads)

	runner := loop.New(board, syncWF, loadWF,
		time.Duration(b.Poll.IntervalMs)*time.Millisecond)

	zap.S().Infow("batchlink started",
		"plc", b.PLC.Endpoint, "cloud", b.Cloud.URL, "printer", b.Printer.Host)

	runner.Run(ctx)
	return nil
}

// testConnections probes every link once; used by --test-config.
func testConnections(cfg *config.Config) error {
	b := cfg.Bridge

	bus, err := plc.New(plc.Config{
		Endpoint: b.PLC.Endpoint,
		UnitID:   b.PLC.UnitID,
		Timeout:  time.Duration(b.PLC.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("plc: %w", err)
	}
	defer bus.Close()
	if _, err := bus.ReadRegisters(status.RegTrigger, 1); err != nil {
		return fmt.Errorf("plc read: %w", err)
	}
	fmt.Println("plc OK")

	source, err := cloud.New(cloud.Config{
		URL:           b.Cloud.URL,
		Timeout:       time.Duration(b.Cloud.TimeoutMs) * time.Millisecond,
		RetryAttempts: 1,
		RetryDelay:    time.Duration(b.Cloud.Retry.DelayMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := source.Ping(ctx); err != nil {
		return fmt.Errorf("cloud: %w", err)
	}
	fmt.Println("cloud OK")

	// The printheads have no harmless probe command; reachability of
	// the host is all --test-config asserts.
	fmt.Println("printer: configured, not probed")
	return nil
}
