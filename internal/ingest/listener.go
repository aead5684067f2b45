// Package ingest runs the UDP read loop: decode each datagram's samples,
// resolve each sample's registry cell (creating it on first sight), and
// apply the sample to its accumulator.
package ingest

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cc-metrics/statsgod/internal/aggregate"
	"github.com/cc-metrics/statsgod/internal/protocol"
	"github.com/cc-metrics/statsgod/internal/registry"
	"github.com/cc-metrics/statsgod/internal/statsdlog"
)

// maxDatagramSize is large enough for any UDP payload a conforming client
// can send without fragmentation concerns statsgod needs to care about.
const maxDatagramSize = 65535

// Bind opens a UDP listener for every address in addrs, logging and
// skipping any address that fails to bind. It returns an error only when
// none bind at all, the FatalInit condition: a statsgod instance that
// cannot receive samples on any address has nothing to do.
func Bind(addrs []string) ([]net.PacketConn, error) {
	var conns []net.PacketConn
	for _, addr := range addrs {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			statsdlog.Warnf("ingest: could not bind %s: %v", addr, err)
			continue
		}
		statsdlog.Infof("ingest: listening on %s", addr)
		conns = append(conns, conn)
	}
	if len(conns) == 0 {
		return nil, errors.New("ingest: no listen address could be bound")
	}
	return conns, nil
}

// Listener reads datagrams from one UDP socket and applies their samples
// to the shared registry.
type Listener struct {
	conn  net.PacketConn
	reg   *registry.Registry
	stats *Stats
}

func NewListener(conn net.PacketConn, reg *registry.Registry, stats *Stats) *Listener {
	return &Listener{conn: conn, reg: reg, stats: stats}
}

// Serve reads until ctx is canceled or the socket is closed. It always
// closes the underlying connection before returning.
func (l *Listener) Serve(ctx context.Context) error {
	defer l.conn.Close()

	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		l.handle(buf[:n])
	}
}

func (l *Listener) handle(data []byte) {
	l.stats.addBytes(len(data))
	l.stats.addPacket()

	samples, errs := protocol.ParseDatagram(data)
	for _, e := range errs {
		l.stats.addParseError()
		statsdlog.Warnf("ingest: %v", e)
	}

	now := time.Now()
	for _, s := range samples {
		l.apply(s, now)
	}
}

func (l *Listener) apply(s aggregate.Sample, now time.Time) {
	start := time.Now()
	cell, err := l.reg.GetOrCreate(s.Name, s.Type, now)
	l.stats.addLookup(time.Since(start).Nanoseconds())

	if err != nil {
		statsdlog.Warnf("ingest: %v for %q", err, s.Name)
		return
	}

	cell.Acc.Apply(s)
	l.reg.Touch(cell, now)
	l.stats.addMetric()
}
