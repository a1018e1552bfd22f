// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
}

type BridgeConfig struct {
	PLC     PLCConfig     `yaml:"plc"`
	Cloud   CloudConfig   `yaml:"cloud"`
	Printer PrinterConfig `yaml:"printer"`
	Poll    PollConfig    `yaml:"poll"`

	// CapacityPolicy: "truncate" (default) completes a sync that got
	// more records than free slots and surfaces a warning code;
	// "strict" fails it as a data error.
	CapacityPolicy string `yaml:"capacity_policy"`

	LogLevel string `yaml:"log_level"`
}

// ---- PLC ----

type PLCConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- CLOUD SOURCE ----

type CloudConfig struct {
	URL       string      `yaml:"url"`
	TimeoutMs int         `yaml:"timeout_ms"`
	Retry     RetryConfig `yaml:"retry"`
}

// ---- PRINTER PAIR ----

type PrinterConfig struct {
	Host           string      `yaml:"host"`
	Head1Port      int         `yaml:"head1_port"`
	Head2Port      int         `yaml:"head2_port"`
	TimeoutMs      int         `yaml:"timeout_ms"`
	CommandDelayMs int         `yaml:"command_delay_ms"`
	Retry          RetryConfig `yaml:"retry"`
}

// ---- RETRY POLICY ----

type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	DelayMs  int `yaml:"delay_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Load reads and unmarshals the config file. Validation and
// normalization are separate stages.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Sample is a complete commented config, written by --create-config.
const Sample = `bridge:
  plc:
    endpoint: "10.100.1.20:502"
    unit_id: 1
    timeout_ms: 5000

  cloud:
    url: "https://example.invalid/batches?client=line1"
    timeout_ms: 10000
    retry:
      attempts: 3
      delay_ms: 2000

  printer:
    host: "10.100.1.10"
    head1_port: 43110
    head2_port: 43111
    timeout_ms: 10000
    command_delay_ms: 100
    retry:
      attempts: 2
      delay_ms: 1000

  poll:
    interval_ms: 1000

  # truncate: keep what fits, flag the rest. strict: refuse the sync.
  capacity_policy: truncate

  log_level: info
`

// WriteSample writes the sample config to path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	return os.WriteFile(path, []byte(Sample), 0o644)
}
