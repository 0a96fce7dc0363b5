package pool

import (
	"context"
	"log"
	"runtime"
	"strconv"
	"sync"

	"github.com/WhileEndless/go-httpcore/pkg/constants"
	"github.com/WhileEndless/go-httpcore/pkg/errors"
	"github.com/WhileEndless/go-httpcore/pkg/headers"
	"github.com/WhileEndless/go-httpcore/pkg/httpurl"
	"github.com/WhileEndless/go-httpcore/pkg/message"
	"github.com/WhileEndless/go-httpcore/pkg/network"
)

// ConnectionPool hands out Connections keyed by origin, dialing a new
// one only when no idle, unexpired Connection to that origin exists.
// A semaphore caps total live connections at constants.MaxPoolConnections.
type ConnectionPool struct {
	backend *network.Backend

	mu          sync.Mutex
	connections []*Connection
	closed      bool

	limit chan struct{}
}

// NewConnectionPool returns a ConnectionPool dialing through backend.
// A nil backend gets network.NewBackend()'s defaults.
func NewConnectionPool(backend *network.Backend) *ConnectionPool {
	if backend == nil {
		backend = network.NewBackend()
	}
	p := &ConnectionPool{
		backend: backend,
		limit:   make(chan struct{}, constants.MaxPoolConnections),
	}
	runtime.SetFinalizer(p, func(p *ConnectionPool) {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if !closed {
			log.Printf("httpcore: ConnectionPool was garbage collected without being closed")
		}
	})
	return p
}

// Send routes req to a reused or freshly dialed Connection for its
// origin and runs one full request/response cycle on it.
func (p *ConnectionPool) Send(ctx context.Context, req *message.Request) (*message.Response, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.NewValidationError("ConnectionPool is closed")
	}
	p.mu.Unlock()

	p.cleanup()

	conn, err := p.getConnection(ctx, req)
	if err != nil {
		return nil, err
	}
	return conn.Send(req)
}

// Request builds a Request from its parts, routes it through Send,
// and reads the response body fully before returning.
func (p *ConnectionPool) Request(ctx context.Context, method string, url httpurl.URL, hdrs headers.Headers, body any) (*message.Response, error) {
	resp, err := p.Stream(ctx, method, url, hdrs, body)
	if err != nil {
		return nil, err
	}
	if _, err := resp.Read(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream builds a Request from its parts and routes it through Send,
// leaving the response body unread for the caller to pull lazily.
func (p *ConnectionPool) Stream(ctx context.Context, method string, url httpurl.URL, hdrs headers.Headers, body any) (*message.Response, error) {
	req, err := message.NewRequest(method, url, hdrs, body)
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, req)
}

// getConnection reuses an idle, unexpired Connection to req's origin if
// one exists, dialing a new one otherwise.
func (p *ConnectionPool) getConnection(ctx context.Context, req *message.Request) (*Connection, error) {
	origin := originOf(req.URL)

	p.mu.Lock()
	for _, c := range p.connections {
		if c.Origin() == origin && c.IsIdle() && !c.IsExpired() {
			p.mu.Unlock()
			return c, nil
		}
	}
	p.mu.Unlock()

	select {
	case p.limit <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	conn, err := p.dial(ctx, origin)
	if err != nil {
		<-p.limit
		return nil, err
	}

	p.mu.Lock()
	p.connections = append(p.connections, conn)
	p.mu.Unlock()
	return conn, nil
}

func (p *ConnectionPool) dial(ctx context.Context, origin Origin) (*Connection, error) {
	dialCfg := network.DialConfig{Host: origin.Host, Port: origin.Port}

	var netConn *network.Conn
	var err error
	if origin.Scheme == "https" {
		netConn, err = p.backend.ConnectTLS(ctx, dialCfg)
	} else {
		netConn, err = p.backend.Connect(ctx, dialCfg)
	}
	if err != nil {
		return nil, err
	}
	return newConnection(netConn, origin), nil
}

// cleanup closes and evicts every expired Connection, and drops
// already-closed ones from the pool's bookkeeping so Connections
// (and their semaphore slot) don't leak.
func (p *ConnectionPool) cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.connections[:0]
	for _, c := range p.connections {
		if c.IsExpired() {
			c.Close()
		}
		if c.IsClosed() {
			<-p.limit
			continue
		}
		kept = append(kept, c)
	}
	p.connections = kept
}

// Close closes every pooled Connection and marks the pool unusable for
// further Send calls.
func (p *ConnectionPool) Close() error {
	p.mu.Lock()
	p.closed = true
	closing := p.connections
	p.connections = nil
	p.mu.Unlock()

	for _, c := range closing {
		c.Close()
	}
	return nil
}

// Connections returns a snapshot of the pool's current Connections.
func (p *ConnectionPool) Connections() []*Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Connection, len(p.connections))
	copy(out, p.connections)
	return out
}

// Description summarizes pool state for diagnostics, eg. "2 idle, 1 active".
func (p *ConnectionPool) Description() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := map[string]int{}
	order := []string{}
	for _, c := range p.connections {
		status := c.Description()
		if _, seen := counts[status]; !seen {
			order = append(order, status)
		}
		counts[status]++
	}
	out := ""
	for i, status := range order {
		if i > 0 {
			out += ", "
		}
		out += strconv.Itoa(counts[status]) + " " + status
	}
	return out
}
