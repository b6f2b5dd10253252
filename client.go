package soap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/camcima/camcima-soap-client/debuglog"
	"github.com/camcima/camcima-soap-client/envelope"
	"github.com/camcima/camcima-soap-client/transport"
	"github.com/camcima/camcima-soap-client/wire"
)

// ClientOptions are the parameters of [NewClient].
type ClientOptions struct {
	// Endpoint is the URL that requests are posted to.
	Endpoint string
	// Namespace is the XML namespace of the service's operation
	// elements.
	Namespace string
	// Transport configures the HTTP transport.
	Transport transport.Options
	// Mapping controls how request objects are serialized. Defaults
	// to [DefaultMappingConfig].
	Mapping *MappingConfig
	// Debug, if set, appends every request and response to
	// DebugLogFile.
	Debug bool
	// DebugLogFile is the debug log path.
	DebugLogFile string
	// Registry resolves type names in CallAndMap. Defaults to
	// [DefaultRegistry].
	Registry *Registry
	// Logger receives structured call logs. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client calls the operations of a SOAP service.
//
// A Client is safe for concurrent use, although concurrent calls
// race to record their exchange in [Client.CommunicationLog].
type Client struct {
	endpoint  string
	namespace string
	http      *transport.HTTP
	reg       *Registry
	log       *slog.Logger
	debugLog  *debuglog.Logger

	mu      sync.Mutex
	mapping MappingConfig
	debug   bool
	lastReq string
	lastRsp string
}

// NewClient returns a Client for the service at opts.Endpoint.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, paramErr("Endpoint", "must not be empty")
	}
	t, err := transport.NewHTTP(opts.Transport)
	if err != nil {
		return nil, err
	}
	ret := &Client{
		endpoint:  opts.Endpoint,
		namespace: opts.Namespace,
		http:      t,
		reg:       opts.Registry,
		log:       opts.Logger,
		debugLog:  debuglog.New(opts.DebugLogFile),
		mapping:   DefaultMappingConfig(),
		debug:     opts.Debug,
	}
	if opts.Mapping != nil {
		ret.mapping = *opts.Mapping
	}
	if ret.reg == nil {
		ret.reg = DefaultRegistry
	}
	if ret.log == nil {
		ret.log = slog.Default()
	}
	return ret, nil
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// Transport returns the client's HTTP transport.
func (c *Client) Transport() *transport.HTTP { return c.http }

// LowerCaseFirst reports whether serialized keys have their first
// letter lowercased.
func (c *Client) LowerCaseFirst() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapping.LowerCaseFirst
}

// SetLowerCaseFirst sets whether serialized keys have their first
// letter lowercased.
func (c *Client) SetLowerCaseFirst(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapping.LowerCaseFirst = v
}

// KeepNullProperties reports whether nil properties are serialized
// as empty values.
func (c *Client) KeepNullProperties() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapping.KeepNullProperties
}

// SetKeepNullProperties sets whether nil properties are serialized
// as empty values rather than omitted.
func (c *Client) SetKeepNullProperties(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mapping.KeepNullProperties = v
}

// SetDebug turns debug logging of requests and responses on or off.
func (c *Client) SetDebug(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = v
}

// SetDebugLogFilePath sets the file debug records are appended to.
func (c *Client) SetDebugLogFilePath(path string) {
	c.debugLog.SetPath(path)
}

// SetCookie sets a cookie sent with every subsequent request.
func (c *Client) SetCookie(name, value string) {
	c.http.Cookies().Set(name, value)
}

// CommunicationLog returns the raw text of the last request and
// response exchanged with the server.
func (c *Client) CommunicationLog() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq + "\n\n" + c.lastRsp
}

func (c *Client) state() (MappingConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapping, c.debug
}

// Envelope returns the SOAP envelope that [Client.Call] would send
// for req.
func (c *Client) Envelope(req any) ([]byte, error) {
	cfg, _ := c.state()
	body, err := Serialize(req, cfg)
	if err != nil {
		return nil, err
	}
	return envelope.Encode(body, envelope.EncodeOptions{Namespace: c.namespace})
}

// Call invokes action with req as its request object, and returns
// the content of the response element.
//
// A SOAP fault from the server is returned as an [*envelope.Fault]
// error, and a failure to reach the server as a
// [*transport.ConnectionError].
func (c *Client) Call(ctx context.Context, action string, req any) (wire.Mapping, error) {
	cfg, _ := c.state()
	body, err := Serialize(req, cfg)
	if err != nil {
		return nil, err
	}
	return c.CallTree(ctx, action, body)
}

// CallTree is like [Client.Call], but sends an already serialized
// request body.
func (c *Client) CallTree(ctx context.Context, action string, body wire.Mapping) (wire.Mapping, error) {
	start := time.Now()
	ret, err := c.exchange(ctx, action, body)
	log := c.log.With("action", action, "endpoint", c.endpoint, "duration", time.Since(start))
	if err != nil {
		log.WarnContext(ctx, "SOAP call failed", "err", err)
		return nil, err
	}
	log.DebugContext(ctx, "SOAP call")
	return ret, nil
}

func (c *Client) exchange(ctx context.Context, action string, body wire.Mapping) (wire.Mapping, error) {
	_, debug := c.state()
	env, err := envelope.Encode(body, envelope.EncodeOptions{Namespace: c.namespace})
	if err != nil {
		return nil, err
	}

	treq := &transport.Request{
		URL:    c.endpoint,
		Action: action,
		Body:   env,
	}
	rawReq := treq.Raw(c.http.RequestHeader(ctx, action))
	if debug {
		if err := c.debugLog.Write(rawReq); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.RoundTrip(ctx, treq)
	rawRsp := ""
	if resp != nil {
		rawRsp = resp.Raw()
	}
	c.mu.Lock()
	c.lastReq, c.lastRsp = rawReq, rawRsp
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if debug {
		if err := c.debugLog.Write(rawRsp); err != nil {
			return nil, err
		}
	}

	tree, err := envelope.Decode(resp.Body)
	if err != nil {
		var fault *envelope.Fault
		if errors.As(err, &fault) {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("calling %s: server returned %s", action, resp.Status)
		}
		return nil, fmt.Errorf("calling %s: %w", action, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("calling %s: server returned %s", action, resp.Status)
	}
	return responseContent(tree), nil
}

// responseContent returns the content of the first body element, the
// operation's response element. Bodies whose first element has no
// children are returned whole.
func responseContent(body wire.Mapping) wire.Mapping {
	first, ok := body.First()
	if !ok {
		return wire.Mapping{}
	}
	switch v := first.Value.(type) {
	case wire.Mapping:
		return v
	case wire.Scalar:
		if v == "" {
			return wire.Mapping{}
		}
	}
	return body
}

// CallAndMap invokes action like [Client.Call], and maps the response
// content onto domain types with the client's registry, as
// [Registry.MapResult] does.
func (c *Client) CallAndMap(ctx context.Context, action string, req any, root string, cm ClassMap, opts MapOptions) (any, error) {
	tree, err := c.Call(ctx, action, req)
	if err != nil {
		return nil, err
	}
	return c.reg.MapResult(tree, root, cm, opts)
}
