// internal/config/validate.go
package config

import (
	"fmt"
	"net"
	"net/url"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	b := cfg.Bridge

	// ------------------------------------------------------------
	// PLC
	// ------------------------------------------------------------

	if b.PLC.Endpoint == "" {
		return fmt.Errorf("plc.endpoint is required")
	}
	if _, _, err := net.SplitHostPort(b.PLC.Endpoint); err != nil {
		return fmt.Errorf("plc.endpoint must be host:port: %w", err)
	}
	if b.PLC.TimeoutMs < 0 {
		return fmt.Errorf("plc.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// CLOUD SOURCE
	// ------------------------------------------------------------

	if b.Cloud.URL == "" {
		return fmt.Errorf("cloud.url is required")
	}
	u, err := url.Parse(b.Cloud.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("cloud.url is not a valid absolute url: %q", b.Cloud.URL)
	}
	if err := validateRetry("cloud.retry", b.Cloud.Retry); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// PRINTER PAIR
	// ------------------------------------------------------------

	if b.Printer.Host == "" {
		return fmt.Errorf("printer.host is required")
	}
	for name, port := range map[string]int{
		"printer.head1_port": b.Printer.Head1Port,
		"printer.head2_port": b.Printer.Head2Port,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s must be 1-65535, got %d", name, port)
		}
	}
	if b.Printer.Head1Port == b.Printer.Head2Port {
		return fmt.Errorf("printer head ports must differ, both are %d", b.Printer.Head1Port)
	}
	if err := validateRetry("printer.retry", b.Printer.Retry); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// POLICY + POLL
	// ------------------------------------------------------------

	switch b.CapacityPolicy {
	case "", "truncate", "strict":
	default:
		return fmt.Errorf("capacity_policy must be truncate or strict, got %q", b.CapacityPolicy)
	}

	if b.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms must be >= 0")
	}

	return nil
}

func validateRetry(name string, r RetryConfig) error {
	if r.Attempts < 0 {
		return fmt.Errorf("%s.attempts must be >= 0", name)
	}
	if r.DelayMs < 0 {
		return fmt.Errorf("%s.delay_ms must be >= 0", name)
	}
	return nil
}
