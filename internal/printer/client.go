// internal/printer/client.go
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/faults"
)

// Head identifies a printhead.
type Head int

const (
	Head1 Head = 1
	Head2 Head = 2
)

// Config covers both heads: same host, one port per head.
type Config struct {
	Host          string
	Head1Port     int
	Head2Port     int
	Timeout       time.Duration
	CommandDelay  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// HeadClient talks to a single printhead. Stateless: one send is one
// TCP connection, the way the head's firmware expects.
type HeadClient struct {
	head    Head
	addr    string
	timeout time.Duration
	delay   time.Duration

	attempts uint64
	backoff  time.Duration

	// dial is swappable for tests.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// NewHeadClient builds the client for one head.
func NewHeadClient(cfg Config, head Head) (*HeadClient, error) {
	if cfg.Host == "" {
		return nil, errors.New("printer: host required")
	}
	port := cfg.Head1Port
	if head == Head2 {
		port = cfg.Head2Port
	}
	if port <= 0 {
		return nil, fmt.Errorf("printer: head %d port required", head)
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 2
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HeadClient{
		head:     head,
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		timeout:  timeout,
		delay:    cfg.CommandDelay,
		attempts: uint64(attempts),
		backoff:  retryDelay,
	}
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: c.timeout}
		return d.DialContext(ctx, "tcp", addr)
	}
	return c, nil
}

// Send delivers the command set in order over one connection, with its
// own bounded retry. The context gates retries between attempts only:
// an attempt already on the wire runs to completion or timeout so the
// head is never left with a torn message.
func (c *HeadClient) Send(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return faults.NewData("commands", "nothing to send")
	}

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return c.sendOnce(commands)
	}

	pol := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), c.attempts-1)
	if err := backoff.Retry(op, pol); err != nil {
		return faults.NewTransport(faults.SourcePrinter,
			fmt.Errorf("head %d: %w", c.head, err))
	}
	return nil
}

// sendOnce is exactly one connection attempt.
func (c *HeadClient) sendOnce(commands []string) error {
	conn, err := c.dial(context.Background(), c.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	for i, cmd := range commands {
		if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
			return fmt.Errorf("command %d/%d: %w", i+1, len(commands), err)
		}
		if c.delay > 0 && i < len(commands)-1 {
			time.Sleep(c.delay)
		}
	}

	// Best-effort ack read; many firmware revisions never answer.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 256)
	if n, err := conn.Read(buf); err == nil && n > 0 {
		zap.S().Debugw("printhead response", "head", int(c.head), "response", string(buf[:n]))
	}

	return nil
}

// Results carries the independent per-head outcomes of a dual send.
type Results struct {
	Head1 error
	Head2 error
}

// OK reports whether both heads accepted the message.
func (r Results) OK() bool { return r.Head1 == nil && r.Head2 == nil }

// Dual relays one message to both printheads.
type Dual struct {
	head1 *HeadClient
	head2 *HeadClient
}

// NewDual builds clients for the head pair.
func NewDual(cfg Config) (*Dual, error) {
	h1, err := NewHeadClient(cfg, Head1)
	if err != nil {
		return nil, err
	}
	h2, err := NewHeadClient(cfg, Head2)
	if err != nil {
		return nil, err
	}
	return &Dual{head1: h1, head2: h2}, nil
}

// SendBoth issues the two sends together and waits for both outcomes.
// It is a join, not a race: one head's result never cancels or skips
// the other, and a half-printed bag is detectable from Results.
func (d *Dual) SendBoth(ctx context.Context, commands []string) Results {
	var res Results
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Head1 = d.head1.Send(ctx, commands)
	}()
	go func() {
		defer wg.Done()
		res.Head2 = d.head2.Send(ctx, commands)
	}()
	wg.Wait()

	if !res.OK() {
		zap.S().Errorw("dual send incomplete",
			"head1Err", res.Head1, "head2Err", res.Head2)
	}
	return res
}
