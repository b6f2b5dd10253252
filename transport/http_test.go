package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	header http.Header
	close  bool
	user   string
	pass   string
	hasPw  bool
	body   string
}

func recordingServer(t *testing.T, status int, body string) (*httptest.Server, chan seenRequest) {
	t.Helper()
	seen := make(chan seenRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, _ := io.ReadAll(r.Body)
		user, pass, ok := r.BasicAuth()
		seen <- seenRequest{r.Header.Clone(), r.Close, user, pass, ok, string(bs)}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestRoundTripHeaders(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, "<ok/>")

	h, err := NewHTTP(Options{
		Login:    "user",
		Password: "password",
		Header:   http.Header{"X-Trace": {"abc"}},
	})
	require.NoError(t, err)
	h.Cookies().Set("session", "s1")
	h.Cookies().Set("lang", "en")

	resp, err := h.RoundTrip(context.Background(), &Request{
		URL:    srv.URL,
		Action: "http://example.com/GetCityForecastByZIP",
		Body:   []byte("<envelope/>"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Equal(t, "<ok/>", string(resp.Body))

	got := <-seen
	assert.Equal(t, "<envelope/>", got.body)
	assert.True(t, got.close, "Connection: close not sent")
	assert.Equal(t, DefaultUserAgent, got.header.Get("User-Agent"))
	assert.Equal(t, DefaultContentType, got.header.Get("Content-Type"))
	assert.Equal(t, `"http://example.com/GetCityForecastByZIP"`, got.header.Get("SOAPAction"))
	assert.Equal(t, "lang=en; session=s1; ", got.header.Get("Cookie"))
	assert.Equal(t, "abc", got.header.Get("X-Trace"))
	assert.True(t, got.hasPw)
	assert.Equal(t, "user", got.user)
	assert.Equal(t, "password", got.pass)
}

func TestRoundTripCustomAgent(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, "<ok/>")

	h, err := NewHTTP(Options{UserAgent: "PHPUnit", ContentType: "application/soap+xml"})
	require.NoError(t, err)
	_, err = h.RoundTrip(context.Background(), &Request{URL: srv.URL, Action: "a"})
	require.NoError(t, err)

	got := <-seen
	assert.Equal(t, "PHPUnit", got.header.Get("User-Agent"))
	assert.Equal(t, "application/soap+xml", got.header.Get("Content-Type"))
	assert.Empty(t, got.header.Get("Cookie"))
	assert.False(t, got.hasPw)
}

func TestRoundTripFaultStatus(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusInternalServerError, "<fault/>")

	h, err := NewHTTP(Options{})
	require.NoError(t, err)
	resp, err := h.RoundTrip(context.Background(), &Request{URL: srv.URL, Action: "a"})
	require.NoError(t, err, "error status with a body is not a transport error")
	assert.False(t, resp.OK())
	assert.Equal(t, "<fault/>", string(resp.Body))
}

func TestRoundTripConnectionErrors(t *testing.T) {
	empty, _ := recordingServer(t, http.StatusBadGateway, "")

	// A listener that is closed right away gives a refused port.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := "http://" + l.Addr().String()
	l.Close()

	h, err := NewHTTP(Options{Timeout: 5 * time.Second})
	require.NoError(t, err)

	for _, u := range []string{empty.URL, dead, "://bad-url"} {
		_, err := h.RoundTrip(context.Background(), &Request{URL: u, Action: "a"})
		var cerr *ConnectionError
		require.ErrorAs(t, err, &cerr, "url %s", u)
		assert.Equal(t, u, cerr.URL)
		assert.NotNil(t, errors.Unwrap(err))
	}
}

func TestRoundTripUnixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soap.sock")
	l, err := net.Listen("unix", path)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<unix/>")
	}))
	srv.Listener = l
	srv.Start()
	t.Cleanup(srv.Close)

	h, err := NewHTTP(Options{UnixSocket: path})
	require.NoError(t, err)
	resp, err := h.RoundTrip(context.Background(), &Request{URL: "http://soap.local/service", Action: "a"})
	require.NoError(t, err)
	assert.Equal(t, "<unix/>", string(resp.Body))
}

func TestRoundTripProxy(t *testing.T) {
	type proxied struct {
		url, auth string
	}
	seen := make(chan proxied, 1)
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Proxied requests carry the absolute target URL.
		seen <- proxied{r.URL.String(), r.Header.Get("Proxy-Authorization")}
		io.WriteString(w, "<proxied/>")
	}))
	t.Cleanup(proxy.Close)

	host, portStr, err := net.SplitHostPort(proxy.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	p := &Proxy{Host: host, Port: port, User: "puser", Password: "ppass"}

	h, err := NewHTTP(Options{Proxy: p})
	require.NoError(t, err)
	resp, err := h.RoundTrip(context.Background(), &Request{URL: "http://soap.example/ws", Action: "a"})
	require.NoError(t, err)
	assert.Equal(t, "<proxied/>", string(resp.Body))

	got := <-seen
	assert.Equal(t, "http://soap.example/ws", got.url)
	assert.NotEmpty(t, got.auth)
}

func TestRateLimit(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK, "<ok/>")

	_, err := NewHTTP(Options{RateLimit: -1})
	require.Error(t, err)

	h, err := NewHTTP(Options{RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)
	req := &Request{URL: srv.URL, Action: "a"}
	_, err = h.RoundTrip(context.Background(), req)
	require.NoError(t, err)

	// The burst is spent, and the next token is far away.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = h.RoundTrip(ctx, req)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	ok, _ := recordingServer(t, http.StatusOK, "<ok/>")
	fault, _ := recordingServer(t, http.StatusInternalServerError, "<fault/>")
	empty, _ := recordingServer(t, http.StatusInternalServerError, "")

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	require.Error(t, err, "registering twice must fail")

	h, err := NewHTTP(Options{Metrics: m})
	require.NoError(t, err)
	ctx := context.Background()
	for _, u := range []string{ok.URL, ok.URL, fault.URL, empty.URL} {
		h.RoundTrip(ctx, &Request{URL: u, Action: "Get"})
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("Get", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("Get", OutcomeHTTPError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("Get", OutcomeConnection)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Latency))

	// A nil *Metrics is a no-op.
	var nilMetrics *Metrics
	nilMetrics.observe("a", OutcomeOK, time.Second)
}
