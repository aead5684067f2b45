// Package sink maintains the outbound TCP connection to a Graphite-style
// carbon line receiver: connect, write plaintext records, reconnect with
// backoff when the connection drops. Both the primary metrics sink and the
// self-telemetry sink (internal/telemetry) are instances of Client.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"github.com/cc-metrics/statsgod/internal/statsdlog"
)

// State is a Client's connection state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client owns one TCP connection to a carbon line receiver.
type Client struct {
	name   string // for log lines: "graphite" or "stats"
	host   string
	port   int
	prefix string

	reconnectInterval time.Duration

	mu    sync.Mutex
	conn  net.Conn
	w     *bufio.Writer
	state atomic.Int32
	// down is closed by WriteRecord/Flush when a live connection fails, so
	// Run notices the drop immediately instead of only on the next dial
	// attempt it happens to make on its own schedule.
	down chan struct{}

	backoff *backoff.Backoff
	limiter *rate.Limiter

	bytesSent   atomic.Int64
	recordsSent atomic.Int64
}

// NewClient constructs a client for host:port. reconnectInterval is both the
// minimum and the maximum of the jpillora/backoff delay, so every retry
// waits that long, and it also caps how often a connect attempt may be
// retried per golang.org/x/time/rate; the two work together so a sink that
// is down hard does not turn into a reconnect storm against a host that is
// merely slow to accept.
func NewClient(name, host string, port int, prefix string, reconnectInterval time.Duration) *Client {
	if reconnectInterval <= 0 {
		reconnectInterval = 5 * time.Second
	}
	c := &Client{
		name:              name,
		host:              host,
		port:              port,
		prefix:            prefix,
		reconnectInterval: reconnectInterval,
		backoff: &backoff.Backoff{
			Min:    reconnectInterval,
			Max:    reconnectInterval,
			Factor: 2,
			Jitter: true,
		},
		limiter: rate.NewLimiter(rate.Every(reconnectInterval), 1),
	}
	c.state.Store(int32(Disconnected))
	return c
}

func (c *Client) State() State { return State(c.state.Load()) }

// Run owns the connection for as long as ctx is alive, reconnecting on any
// write or dial failure until canceled.
func (c *Client) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := c.connect(ctx); err != nil {
			statsdlog.Warnf("sink[%s]: %v", c.name, err)
			c.state.Store(int32(Disconnected))

			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case <-time.After(c.backoff.Duration()):
			case <-ctx.Done():
				return
			}
			continue
		}

		c.backoff.Reset()

		select {
		case <-ctx.Done():
			c.closeConn()
			return
		case <-c.connDown():
			c.closeConn()
			// loop back around and reconnect
		}
	}
}

// connDown returns the channel that signals this connection attempt has
// failed, captured under lock so it can't race with a concurrent reconnect
// replacing it.
func (c *Client) connDown() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.down
}

func (c *Client) connect(ctx context.Context) error {
	c.state.Store(int32(Connecting))

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.w = bufio.NewWriter(conn)
	c.down = make(chan struct{})
	c.mu.Unlock()

	c.state.Store(int32(Connected))
	statsdlog.Infof("sink[%s]: connected to %s", c.name, addr)
	return nil
}

// markDownLocked transitions to disconnected and wakes Run's reconnect
// loop, if one is waiting on this connection. Callers must already hold
// c.mu. Safe to call more than once for the same connection attempt.
func (c *Client) markDownLocked() {
	if c.state.Swap(int32(Disconnected)) != int32(Disconnected) && c.down != nil {
		close(c.down)
		c.down = nil
	}
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.w = nil
	}
	c.state.Store(int32(Disconnected))
}

// ErrNotConnected is returned by WriteRecord when no connection is
// currently established; the caller (the scheduled flush) simply drops the
// interval's samples, matching evstatsd's "flush to nowhere" behavior when
// the graphite connection is down.
var ErrNotConnected = errors.New("sink: not connected")

// WriteRecord buffers one Graphite plaintext line: "<metric> <value>
// <epoch>\n". It does not flush to the wire; call Flush once per batch.
func (c *Client) WriteRecord(metric string, value float64, ts int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil {
		return ErrNotConnected
	}

	var line strings.Builder
	if c.prefix != "" {
		line.WriteString(c.prefix)
		line.WriteByte('.')
	}
	line.WriteString(metric)
	line.WriteByte(' ')
	line.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	line.WriteByte(' ')
	line.WriteString(strconv.FormatInt(ts, 10))
	line.WriteByte('\n')

	n, err := c.w.WriteString(line.String())
	if err != nil {
		c.markDownLocked()
		return fmt.Errorf("sink[%s]: write: %w", c.name, err)
	}
	c.bytesSent.Add(int64(n))
	c.recordsSent.Add(1)
	return nil
}

// Flush pushes whatever records have been buffered since the last flush
// onto the wire.
func (c *Client) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil {
		return ErrNotConnected
	}
	if err := c.w.Flush(); err != nil {
		c.markDownLocked()
		return fmt.Errorf("sink[%s]: flush: %w", c.name, err)
	}
	return nil
}

// Counters returns cumulative bytes and records written since startup, the
// values the self-telemetry sampler reports as graphite.bytes.tx and
// graphite.metrics.tx.
func (c *Client) Counters() (bytes, records int64) {
	return c.bytesSent.Load(), c.recordsSent.Load()
}
