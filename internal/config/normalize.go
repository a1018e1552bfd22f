// internal/config/normalize.go
package config

import (
	"os"
	"strings"
)

// Defaults applied by Normalize. Values match the line's commissioning
// settings.
const (
	defaultPLCTimeoutMs       = 5000
	defaultCloudTimeoutMs     = 10000
	defaultCloudAttempts      = 3
	defaultCloudDelayMs       = 2000
	defaultPrinterTimeoutMs   = 10000
	defaultPrinterAttempts    = 2
	defaultPrinterDelayMs     = 1000
	defaultPrinterCmdDelayMs  = 100
	defaultPollIntervalMs     = 1000
	defaultCapacityPolicyName = "truncate"
	defaultLogLevel           = "info"
)

// Normalize applies environment overrides and defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	// ------------------------------------------------------------
	// ENVIRONMENT OVERRIDES
	// ------------------------------------------------------------

	if v := os.Getenv("BATCHLINK_PLC_ENDPOINT"); v != "" {
		b.PLC.Endpoint = v
	}
	if v := os.Getenv("BATCHLINK_CLOUD_URL"); v != "" {
		b.Cloud.URL = v
	}
	if v := os.Getenv("BATCHLINK_PRINTER_HOST"); v != "" {
		b.Printer.Host = v
	}
	if v := os.Getenv("BATCHLINK_LOG_LEVEL"); v != "" {
		b.LogLevel = v
	}

	// ------------------------------------------------------------
	// DEFAULTS
	// ------------------------------------------------------------

	if b.PLC.TimeoutMs == 0 {
		b.PLC.TimeoutMs = defaultPLCTimeoutMs
	}
	if b.Cloud.TimeoutMs == 0 {
		b.Cloud.TimeoutMs = defaultCloudTimeoutMs
	}
	if b.Cloud.Retry.Attempts == 0 {
		b.Cloud.Retry.Attempts = defaultCloudAttempts
	}
	if b.Cloud.Retry.DelayMs == 0 {
		b.Cloud.Retry.DelayMs = defaultCloudDelayMs
	}
	if b.Printer.TimeoutMs == 0 {
		b.Printer.TimeoutMs = defaultPrinterTimeoutMs
	}
	if b.Printer.Retry.Attempts == 0 {
		b.Printer.Retry.Attempts = defaultPrinterAttempts
	}
	if b.Printer.Retry.DelayMs == 0 {
		b.Printer.Retry.DelayMs = defaultPrinterDelayMs
	}
	if b.Printer.CommandDelayMs == 0 {
		b.Printer.CommandDelayMs = defaultPrinterCmdDelayMs
	}
	if b.Poll.IntervalMs == 0 {
		b.Poll.IntervalMs = defaultPollIntervalMs
	}
	if b.CapacityPolicy == "" {
		b.CapacityPolicy = defaultCapacityPolicyName
	}
	if b.LogLevel == "" {
		b.LogLevel = defaultLogLevel
	}
	b.LogLevel = strings.ToLower(b.LogLevel)
	b.CapacityPolicy = strings.ToLower(b.CapacityPolicy)
}
