package transport

import (
	"bytes"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Request is a SOAP request to send.
type Request struct {
	// URL is the service endpoint.
	URL string
	// Action is the SOAP action, sent quoted in the SOAPAction header.
	Action string
	// Body is the request envelope.
	Body []byte
}

// Response is the result of a SOAP request.
type Response struct {
	// Status is the response status line, for example "200 OK".
	Status     string
	StatusCode int
	Proto      string
	Header     http.Header
	Body       []byte
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Raw returns r as it appeared on the wire, with header lines in
// sorted order.
func (r *Response) Raw() string {
	var ret strings.Builder
	proto := r.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	fmt.Fprintf(&ret, "%s %s\r\n", proto, r.Status)
	for _, k := range slices.Sorted(maps.Keys(r.Header)) {
		for _, v := range r.Header[k] {
			fmt.Fprintf(&ret, "%s: %s\r\n", k, v)
		}
	}
	ret.WriteString("\r\n")
	ret.Write(r.Body)
	return ret.String()
}

// Raw returns req as it is sent on the wire, excluding headers added
// by the HTTP client itself.
func (req *Request) Raw(h http.Header) string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "POST %s\r\n", req.URL)
	var buf bytes.Buffer
	h.Write(&buf)
	ret.Write(buf.Bytes())
	ret.WriteString("\r\n")
	ret.Write(req.Body)
	return ret.String()
}

// SplitResponse splits a raw HTTP response into its header block and
// body, at the first blank line. Lines may end in CRLF or LF. If raw
// has no blank line, it is all header.
func SplitResponse(raw string) (header, body string) {
	crlf := strings.Index(raw, "\r\n\r\n")
	lf := strings.Index(raw, "\n\n")
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return raw[:crlf], raw[crlf+4:]
	case lf >= 0:
		return raw[:lf], raw[lf+2:]
	}
	return raw, ""
}

// ConnectionError is the error returned when a request could not be
// completed: the endpoint was unreachable, the exchange failed
// midway, or the server answered with an error status and no body.
type ConnectionError struct {
	// URL is the endpoint being contacted.
	URL string
	// Err is the underlying error.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
