package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"time"

	netproxy "golang.org/x/net/proxy"

	"github.com/WhileEndless/go-httpcore/pkg/errors"
	"github.com/WhileEndless/go-httpcore/pkg/tlsconfig"
)

// DialConfig describes how to reach a single origin: which host and
// port, whether to negotiate TLS on top, and through which proxy (if
// any).
type DialConfig struct {
	Host string
	Port int

	TLSConfig          *tls.Config // nil: Backend builds one from VersionProfile/CACerts.
	SNI                string
	InsecureSkipVerify bool
	CACerts            [][]byte

	Proxy *ProxyConfig

	ConnTimeout time.Duration
	DNSTimeout  time.Duration

	Resolver *net.Resolver
}

// ProxyConfig describes an upstream proxy a Backend dials through
// before reaching the real origin. Only SOCKS5 is dialed directly;
// http/https proxy schemes are recognized by ParseProxyURL but are
// otherwise the caller's concern (CONNECT tunneling is a pool/client
// decision, not a backend one).
type ProxyConfig struct {
	Type     string // "http", "https", "socks4", "socks5"
	Host     string
	Port     int
	Username string
	Password string
}

// Backend creates streams: plain or TLS sockets for the client side,
// and listeners for the server side. It is the one place net.Conn
// meets bytestream.Stream.
type Backend struct {
	VersionProfile tlsconfig.VersionProfile
}

// NewBackend returns a Backend defaulting to TLS 1.2+ ("Secure").
func NewBackend() *Backend {
	return &Backend{VersionProfile: tlsconfig.ProfileSecure}
}

// Connect dials cfg.Host:cfg.Port, optionally through a proxy, and
// returns a plain TCP stream. Use ConnectTLS for an encrypted one.
func (b *Backend) Connect(ctx context.Context, cfg DialConfig) (*Conn, error) {
	if cfg.Host == "" {
		return nil, errors.NewValidationError("host cannot be empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.NewValidationError("port must be between 1 and 65535")
	}

	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	targetAddr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var (
		conn net.Conn
		meta Metadata
		err  error
	)
	if cfg.Proxy != nil {
		conn, meta, err = b.connectViaProxy(ctx, cfg, targetAddr, timeout)
	} else {
		conn, err = b.dialDirect(ctx, cfg, targetAddr, timeout)
	}
	if err != nil {
		return nil, errors.NewConnectionError(cfg.Host, cfg.Port, err)
	}

	if remote := conn.RemoteAddr(); remote != nil {
		if host, portStr, splitErr := net.SplitHostPort(remote.String()); splitErr == nil {
			meta.ConnectedIP = host
			if port, convErr := strconv.Atoi(portStr); convErr == nil {
				meta.ConnectedPort = port
			}
		}
	}
	if meta.NegotiatedProtocol == "" {
		meta.NegotiatedProtocol = "HTTP/1.1"
	}

	return newConn(conn, meta), nil
}

func (b *Backend) dialDirect(ctx context.Context, cfg DialConfig, targetAddr string, timeout time.Duration) (net.Conn, error) {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	dnsTimeout := cfg.DNSTimeout
	if dnsTimeout <= 0 {
		dnsTimeout = timeout
	}
	dnsCtx, cancel := context.WithTimeout(ctx, dnsTimeout)
	addrs, err := resolver.LookupIPAddr(dnsCtx, cfg.Host)
	cancel()
	if err != nil {
		return nil, errors.NewDNSError(cfg.Host, err)
	}
	if len(addrs) == 0 {
		return nil, errors.NewDNSError(cfg.Host, errors.NewValidationError("no IP addresses found"))
	}

	resolvedAddr := net.JoinHostPort(addrs[0].IP.String(), targetAddrPort(targetAddr))
	dialer := &net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", resolvedAddr)
}

func targetAddrPort(targetAddr string) string {
	_, port, err := net.SplitHostPort(targetAddr)
	if err != nil {
		return ""
	}
	return port
}

func (b *Backend) connectViaProxy(ctx context.Context, cfg DialConfig, targetAddr string, timeout time.Duration) (net.Conn, Metadata, error) {
	proxy := cfg.Proxy
	meta := Metadata{ProxyUsed: true, ProxyType: proxy.Type, ProxyAddr: net.JoinHostPort(proxy.Host, strconv.Itoa(proxy.Port))}

	switch proxy.Type {
	case "socks5":
		var auth *netproxy.Auth
		if proxy.Username != "" {
			auth = &netproxy.Auth{User: proxy.Username, Password: proxy.Password}
		}
		dialer, err := netproxy.SOCKS5("tcp", meta.ProxyAddr, auth, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, meta, fmt.Errorf("creating SOCKS5 dialer: %w", err)
		}
		ctxDialer, ok := dialer.(netproxy.ContextDialer)
		if ok {
			conn, err := ctxDialer.DialContext(ctx, "tcp", targetAddr)
			return conn, meta, err
		}
		conn, err := dialer.Dial("tcp", targetAddr)
		return conn, meta, err
	default:
		return nil, meta, errors.NewValidationError(fmt.Sprintf("unsupported proxy scheme for dialing: %s", proxy.Type))
	}
}

// ConnectTLS dials like Connect and then performs a TLS handshake over
// the resulting socket, using cfg.TLSConfig if provided or building one
// from the Backend's VersionProfile, cfg.CACerts, and cfg.SNI/
// InsecureSkipVerify otherwise.
func (b *Backend) ConnectTLS(ctx context.Context, cfg DialConfig) (*Conn, error) {
	raw, err := b.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tlsCfg, err := b.buildTLSConfig(cfg)
	if err != nil {
		raw.Close()
		return nil, errors.NewTLSError(cfg.Host, cfg.Port, err)
	}

	handshakeTimeout := cfg.ConnTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	tlsConn := tls.Client(raw.Conn, tlsCfg)
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		raw.Close()
		return nil, errors.NewTLSError(cfg.Host, cfg.Port, err)
	}

	state := tlsConn.ConnectionState()
	meta := raw.Metadata
	meta.TLSVersion = tlsconfig.GetVersionName(state.Version)
	meta.TLSCipherSuite = tls.CipherSuiteName(state.CipherSuite)
	meta.NegotiatedProtocol = state.NegotiatedProtocol
	if meta.NegotiatedProtocol == "" {
		meta.NegotiatedProtocol = "HTTP/1.1"
	}
	meta.TLSServerName = tlsCfg.ServerName

	return newConn(tlsConn, meta), nil
}

func (b *Backend) buildTLSConfig(cfg DialConfig) (*tls.Config, error) {
	if cfg.TLSConfig != nil {
		out := cfg.TLSConfig.Clone()
		if cfg.InsecureSkipVerify {
			out.InsecureSkipVerify = true
		}
		return out, nil
	}

	out := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	tlsconfig.ApplyVersionProfile(out, b.VersionProfile)
	tlsconfig.ApplyCipherSuites(out, out.MinVersion)

	if cfg.SNI != "" {
		out.ServerName = cfg.SNI
	} else {
		out.ServerName = cfg.Host
	}

	if len(cfg.CACerts) > 0 {
		pool := x509.NewCertPool()
		for i, pem := range cfg.CACerts {
			if !pool.AppendCertsFromPEM(pem) {
				return nil, errors.NewValidationError(fmt.Sprintf("failed to parse CA certificate at index %d", i))
			}
		}
		out.RootCAs = pool
	}

	return out, nil
}

// Listen opens a TCP listener on addr for the server side. Serve
// blocks accepting connections and invoking handle for each one as a
// *Conn, until the listener is closed or ctx is done.
func (b *Backend) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve accepts connections from ln until ctx is canceled or Accept
// fails, handing each accepted connection to handle in its own
// goroutine. Go's goroutine-per-connection model is this module's only
// NetworkBackend variant: it already gives each connection the
// cooperative-scheduling properties a reactor-style backend would
// otherwise need a second implementation to provide.
func (b *Backend) Serve(ctx context.Context, ln net.Listener, handle func(*Conn)) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		raw, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		conn := newConn(raw, Metadata{NegotiatedProtocol: "HTTP/1.1"})
		go handle(conn)
	}
}
