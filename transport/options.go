package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent   = "CamcimaSoapClient/1.0"
	DefaultContentType = "text/xml; charset=utf-8"
	DefaultProxyHost   = "localhost"
	DefaultProxyPort   = 8888
)

// ErrInvalidOption is returned by [Options.Get] for unknown option
// names.
var ErrInvalidOption = errors.New("invalid option")

// Proxy is an HTTP proxy to send requests through.
type Proxy struct {
	// Host is the proxy host. If empty, DefaultProxyHost is used.
	Host string
	// Port is the proxy port. If zero, DefaultProxyPort is used.
	Port int
	// User and Password are the proxy's basic auth credentials. If
	// User is empty, no proxy authentication is sent.
	User     string
	Password string
}

// Addr returns the proxy's host:port, with defaults applied.
func (p *Proxy) Addr() string {
	host, port := p.Host, p.Port
	if host == "" {
		host = DefaultProxyHost
	}
	if port == 0 {
		port = DefaultProxyPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// UserInfo returns the proxy credentials as "user:password", or ""
// if no credentials are set.
func (p *Proxy) UserInfo() string {
	if p.User == "" {
		return ""
	}
	return p.User + ":" + p.Password
}

// Options configure an [HTTP] transport. The zero value is usable.
type Options struct {
	// UserAgent is sent in the User-Agent header. If empty,
	// DefaultUserAgent is used.
	UserAgent string
	// ContentType is sent in the Content-Type header. If empty,
	// DefaultContentType is used.
	ContentType string
	// Timeout bounds each request, including reading the response.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration
	// Login and Password are sent as HTTP basic auth, if Login is
	// non-empty.
	Login    string
	Password string
	// Proxy, if non-nil, routes requests through an HTTP proxy.
	Proxy *Proxy
	// UnixSocket, if set, is the path of a Unix domain socket that
	// all requests are sent to, whatever their URL's host.
	UnixSocket string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Header holds extra headers added to every request.
	Header http.Header
	// RateLimit caps the request rate, in requests per second. Zero
	// means unlimited.
	RateLimit rate.Limit
	// Burst is the rate limiter's burst size. If zero, 1 is used.
	Burst int
	// Metrics, if non-nil, records request counts and latencies.
	Metrics *Metrics
	// Client, if non-nil, is used to send requests instead of a
	// client built from the other options. Timeout, Proxy, UnixSocket
	// and InsecureSkipVerify are ignored in that case.
	Client *http.Client
}

// userAgent returns the effective User-Agent.
func (o *Options) userAgent() string {
	if o.UserAgent == "" {
		return DefaultUserAgent
	}
	return o.UserAgent
}

// contentType returns the effective Content-Type.
func (o *Options) contentType() string {
	if o.ContentType == "" {
		return DefaultContentType
	}
	return o.ContentType
}

// UserPassword returns the basic auth credentials as
// "login:password", and whether any are set.
func (o *Options) UserPassword() (string, bool) {
	if o.Login == "" {
		return "", false
	}
	return o.Login + ":" + o.Password, true
}

// Get returns the value of the named option, with defaults applied.
// Known names are user_agent, content_type, timeout, login,
// password, proxy, proxy_user, insecure and rate_limit.
func (o *Options) Get(name string) (string, error) {
	switch name {
	case "user_agent":
		return o.userAgent(), nil
	case "content_type":
		return o.contentType(), nil
	case "timeout":
		return o.Timeout.String(), nil
	case "login":
		return o.Login, nil
	case "password":
		return o.Password, nil
	case "proxy":
		if o.Proxy == nil {
			return "", nil
		}
		return o.Proxy.Addr(), nil
	case "proxy_user":
		if o.Proxy == nil {
			return "", nil
		}
		return o.Proxy.UserInfo(), nil
	case "insecure":
		return strconv.FormatBool(o.InsecureSkipVerify), nil
	case "rate_limit":
		return strconv.FormatFloat(float64(o.RateLimit), 'f', -1, 64), nil
	}
	return "", fmt.Errorf("option %q: %w", name, ErrInvalidOption)
}
