// cmd/batchlink/service.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/config"
)

// program implements service.Interface around the bridge loop.
type program struct {
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)
	if err := runBridge(p.ctx, p.cfg); err != nil {
		zap.S().Errorw("bridge stopped with error", "err", err)
	}
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}

	// The loop honors cancellation between workflow steps; an in-flight
	// dual-printer send is allowed to finish or hit its own timeout.
	select {
	case <-p.done:
	case <-time.After(30 * time.Second):
		zap.S().Warn("shutdown timed out waiting for the control loop")
	}
	return nil
}

func serviceConfig() *service.Config {
	return &service.Config{
		Name:        "batchlink",
		DisplayName: "Batchlink PLC Bridge",
		Description: "Synchronizes cloud batch records into PLC batch slots and relays operator-selected batches to the printheads.",
		Arguments:   []string{"--service", "run"},
		Option: service.KeyValue{
			"Restart":           "on-failure",
			"RestartSec":        5,
			"SuccessExitStatus": "0 SIGTERM",
		},
	}
}

// handleServiceCommand runs install/uninstall/start/stop/restart/status
// against the platform service manager and exits non-zero on failure.
func handleServiceCommand(cmd string) {
	svc, err := service.New(&program{}, serviceConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "service setup failed: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "install", "uninstall", "start", "stop", "restart":
		if err := service.Control(svc, cmd); err != nil {
			fmt.Fprintf(os.Stderr, "service %s failed: %v\n", cmd, err)
			os.Exit(1)
		}
		fmt.Printf("service %s: done\n", cmd)

	case "status":
		st, err := svc.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "service status failed: %v\n", err)
			os.Exit(1)
		}
		switch st {
		case service.StatusRunning:
			fmt.Println("running")
		case service.StatusStopped:
			fmt.Println("stopped")
		default:
			fmt.Println("unknown")
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown service command %q\n", cmd)
		os.Exit(1)
	}
}

// runAsService hands control to the service manager (or runs the
// program loop directly under --service run).
func runAsService(cfg *config.Config) {
	prg := &program{cfg: cfg}
	svc, err := service.New(prg, serviceConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "service setup failed: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		zap.S().Errorw("service run failed", "err", err)
		os.Exit(1)
	}
}
