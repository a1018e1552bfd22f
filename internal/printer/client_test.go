// internal/printer/client_test.go
package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/batchlink/internal/faults"
)

// fakeConn records written bytes and never answers reads.
type fakeConn struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (f *fakeConn) Read(b []byte) (int, error) { return 0, io.EOF }
func (f *fakeConn) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(b)
}
func (f *fakeConn) Close() error                       { return nil }
func (f *fakeConn) LocalAddr() net.Addr                { return nil }
func (f *fakeConn) RemoteAddr() net.Addr               { return nil }
func (f *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func testConfig() Config {
	return Config{
		Host:          "printhead.local",
		Head1Port:     43110,
		Head2Port:     43111,
		Timeout:       time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func TestSend_DeliversCommandsInOrder(t *testing.T) {
	c, err := NewHeadClient(testConfig(), Head1)
	require.NoError(t, err)

	conn := &fakeConn{}
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		assert.Equal(t, "printhead.local:43110", addr)
		return conn, nil
	}

	err = c.Send(context.Background(), []string{"cmd one", "cmd two"})
	require.NoError(t, err)
	assert.Equal(t, "cmd one\ncmd two\n", conn.written())
}

func TestSend_RetriesFailedDial(t *testing.T) {
	c, err := NewHeadClient(testConfig(), Head2)
	require.NoError(t, err)

	var attempts atomic.Int32
	conn := &fakeConn{}
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("connection refused")
		}
		return conn, nil
	}

	err = c.Send(context.Background(), []string{"cmd"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestSend_ExhaustedRetriesIsPrinterFault(t *testing.T) {
	c, err := NewHeadClient(testConfig(), Head1)
	require.NoError(t, err)

	var attempts atomic.Int32
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	}

	err = c.Send(context.Background(), []string{"cmd"})
	require.Error(t, err)
	assert.True(t, faults.IsTransport(err, faults.SourcePrinter), "err=%v", err)
	assert.Equal(t, int32(3), attempts.Load(), "attempts from config")
}

func TestSend_EmptyCommandSetRejected(t *testing.T) {
	c, err := NewHeadClient(testConfig(), Head1)
	require.NoError(t, err)

	err = c.Send(context.Background(), nil)
	assert.True(t, faults.IsData(err), "err=%v", err)
}

func TestSend_CanceledContextStopsBeforeDialing(t *testing.T) {
	c, err := NewHeadClient(testConfig(), Head1)
	require.NoError(t, err)

	dialed := false
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		dialed = true
		return &fakeConn{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = c.Send(ctx, []string{"cmd"})
	require.Error(t, err)
	assert.False(t, dialed)
}

func TestNewHeadClient_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.Host = ""
	_, err := NewHeadClient(cfg, Head1)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Head2Port = 0
	_, err = NewHeadClient(cfg, Head2)
	assert.Error(t, err)
}

func TestSendBoth_BothSucceed(t *testing.T) {
	d, err := NewDual(testConfig())
	require.NoError(t, err)

	conn1, conn2 := &fakeConn{}, &fakeConn{}
	d.head1.dial = func(ctx context.Context, addr string) (net.Conn, error) { return conn1, nil }
	d.head2.dial = func(ctx context.Context, addr string) (net.Conn, error) { return conn2, nil }

	res := d.SendBoth(context.Background(), []string{"cmd"})
	assert.True(t, res.OK())
	assert.Equal(t, "cmd\n", conn1.written())
	assert.Equal(t, "cmd\n", conn2.written())
}

func TestSendBoth_OneHeadFailingDoesNotSkipTheOther(t *testing.T) {
	d, err := NewDual(testConfig())
	require.NoError(t, err)

	conn1 := &fakeConn{}
	var head2Attempts atomic.Int32
	d.head1.dial = func(ctx context.Context, addr string) (net.Conn, error) { return conn1, nil }
	d.head2.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		head2Attempts.Add(1)
		return nil, errors.New("connection refused")
	}

	res := d.SendBoth(context.Background(), []string{"cmd"})
	assert.False(t, res.OK())
	assert.NoError(t, res.Head1)
	assert.Error(t, res.Head2)
	assert.Equal(t, "cmd\n", conn1.written(), "healthy head still printed")
	assert.Equal(t, int32(3), head2Attempts.Load(), "failing head exhausted its own retries")
}
