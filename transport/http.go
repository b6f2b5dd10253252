// Package transport sends SOAP envelopes over HTTP.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Transport sends SOAP requests.
type Transport interface {
	// RoundTrip sends req and returns the server's response.
	//
	// Failing to reach the server, or a non-2xx status with an empty
	// body, results in a [ConnectionError]. Non-2xx responses with a
	// body are returned without error, since SOAP servers report
	// faults with status 500.
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// HTTP is a Transport that POSTs requests with net/http.
type HTTP struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	cookies Cookies
}

// NewHTTP returns an HTTP transport configured by opts.
func NewHTTP(opts Options) (*HTTP, error) {
	ret := &HTTP{
		opts:   opts,
		client: opts.Client,
	}
	if ret.client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		if opts.UnixSocket != "" {
			tr.DialContext = dialUnix(opts.UnixSocket)
		}
		if p := opts.Proxy; p != nil {
			u := &url.URL{Scheme: "http", Host: p.Addr()}
			if p.User != "" {
				u.User = url.UserPassword(p.User, p.Password)
			}
			tr.Proxy = http.ProxyURL(u)
		}
		ret.client = &http.Client{
			Transport: tr,
			Timeout:   opts.Timeout,
		}
	}
	if opts.RateLimit < 0 {
		return nil, fmt.Errorf("negative rate limit %v", opts.RateLimit)
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		ret.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return ret, nil
}

// Options returns the transport's options.
func (h *HTTP) Options() Options { return h.opts }

// Cookies returns the cookies sent with every request.
func (h *HTTP) Cookies() *Cookies { return &h.cookies }

// Header returns the headers sent with a request for action, not
// counting those added by net/http itself.
func (h *HTTP) Header(action string) http.Header {
	ret := http.Header{}
	for k, vs := range h.opts.Header {
		for _, v := range vs {
			ret.Add(k, v)
		}
	}
	ret.Set("Connection", "close")
	ret.Set("User-Agent", h.opts.userAgent())
	ret.Set("Content-Type", h.opts.contentType())
	ret.Set("SOAPAction", `"`+action+`"`)
	if c := h.cookies.Header(); c != "" {
		ret.Set("Cookie", c)
	}
	return ret
}

// RequestHeader is like [HTTP.Header], but also applies the headers
// that ctx carries from [WithHeader]. Those replace configured headers
// of the same name.
func (h *HTTP) RequestHeader(ctx context.Context, action string) http.Header {
	ret := h.Header(action)
	if extra, ok := ContextHeader(ctx); ok {
		for k, vs := range extra {
			ret[k] = append([]string(nil), vs...)
		}
	}
	return ret
}

// RoundTrip implements Transport.
func (h *HTTP) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			h.opts.Metrics.observe(req.Action, OutcomeRateLimited, 0)
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := h.do(ctx, req)
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeConnection
	case !resp.OK():
		outcome = OutcomeHTTPError
	}
	h.opts.Metrics.observe(req.Action, outcome, time.Since(start))
	return resp, err
}

func (h *HTTP) do(ctx context.Context, req *Request) (*Response, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &ConnectionError{req.URL, err}
	}
	hreq.Header = h.RequestHeader(ctx, req.Action)
	hreq.Close = true
	if h.opts.Login != "" {
		hreq.SetBasicAuth(h.opts.Login, h.opts.Password)
	}

	hresp, err := h.client.Do(hreq)
	if err != nil {
		return nil, &ConnectionError{req.URL, err}
	}
	defer hresp.Body.Close()
	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, &ConnectionError{req.URL, fmt.Errorf("reading response: %w", err)}
	}

	resp := &Response{
		Status:     hresp.Status,
		StatusCode: hresp.StatusCode,
		Proto:      hresp.Proto,
		Header:     hresp.Header,
		Body:       body,
	}
	if !resp.OK() && len(bytes.TrimSpace(body)) == 0 {
		return resp, &ConnectionError{req.URL, fmt.Errorf("HTTP status %s with empty body", hresp.Status)}
	}
	return resp, nil
}
