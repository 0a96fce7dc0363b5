package network

import (
	"fmt"
	"net/url"
	"strconv"
)

// ParseProxyURL parses a proxy URL string into a ProxyConfig suitable
// for DialConfig.Proxy.
//
// Supported schemes: http, https, socks4, socks5. Default ports when
// not specified: http 8080, https 443, socks4/socks5 1080. socks4 is
// recognized for completeness but Backend.Connect only dials socks5
// directly; see DESIGN.md for why socks4/http-CONNECT dialing itself
// is out of scope here.
func ParseProxyURL(proxyURL string) (*ProxyConfig, error) {
	if proxyURL == "" {
		return nil, fmt.Errorf("proxy URL cannot be empty")
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}

	scheme := u.Scheme
	switch scheme {
	case "http", "https", "socks4", "socks5":
	case "":
		return nil, fmt.Errorf("proxy URL must include scheme (http://, https://, socks4://, or socks5://)")
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s (must be http, https, socks4, or socks5)", scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("proxy URL must include host")
	}

	var port int
	if portStr := u.Port(); portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy port: %s", portStr)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("proxy port must be between 1 and 65535, got: %d", port)
		}
	} else {
		switch scheme {
		case "http":
			port = 8080
		case "https":
			port = 443
		case "socks4", "socks5":
			port = 1080
		}
	}

	var username, password string
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
	}

	return &ProxyConfig{
		Type:     scheme,
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	}, nil
}
