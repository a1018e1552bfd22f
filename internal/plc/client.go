// internal/plc/client.go
package plc

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client is a single Modbus TCP connection to the PLC.
// It serializes requests; the handler is not safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// New creates a connected client. Fail fast at startup; the caller owns
// reconnect policy.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("plc: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadRegisters reads qty holding registers starting at 1-based reg.
func (c *Client) ReadRegisters(reg uint16, qty uint16) ([]uint16, error) {
	if reg == 0 {
		return nil, errors.New("plc: register numbers are 1-based")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadHoldingRegisters(reg-1, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw), nil
}

// WriteRegisters writes regs starting at 1-based reg.
func (c *Client) WriteRegisters(reg uint16, regs []uint16) error {
	if reg == 0 {
		return errors.New("plc: register numbers are 1-based")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := uint16(len(regs))
	_, err := c.client.WriteMultipleRegisters(reg-1, qty, packRegisters(regs))
	return err
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
