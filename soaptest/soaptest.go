// Package soaptest provides a fake SOAP endpoint for tests.
package soaptest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/camcima/camcima-soap-client/envelope"
	"github.com/camcima/camcima-soap-client/wire"
	"github.com/creachadair/mds/queue"
)

// Request is a request received by a [Server].
type Request struct {
	// Action is the unquoted SOAPAction header.
	Action string
	// Header is the full set of request headers.
	Header http.Header
	// Body is the raw request body.
	Body []byte
	// Tree is the decoded envelope body, or nil if the body was not a
	// valid SOAP envelope.
	Tree wire.Mapping
	// Username and Password are the HTTP basic auth credentials, if
	// any.
	Username, Password string
}

// Reply is a canned response served by a [Server].
type Reply struct {
	Status int
	Header http.Header
	Body   string
}

// Server is a fake SOAP endpoint. It records every request it
// receives, and answers them in order with the replies queued by
// [Server.Reply] and friends. When no reply is queued, it answers
// with a SOAP fault.
type Server struct {
	srv *httptest.Server
	t   testing.TB

	mu       sync.Mutex
	replies  queue.Queue[Reply]
	requests []*Request
}

// New starts a fake SOAP endpoint for the calling test. The server is
// shut down when the test ends.
func New(t testing.TB) *Server {
	ret := &Server{t: t}
	ret.srv = httptest.NewServer(http.HandlerFunc(ret.serve))
	t.Cleanup(ret.srv.Close)
	return ret
}

// URL returns the endpoint URL of the server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Reply queues a 200 response whose envelope body holds body.
func (s *Server) Reply(body wire.Mapping) {
	s.t.Helper()
	bs, err := envelope.Encode(body, envelope.EncodeOptions{})
	if err != nil {
		s.t.Fatalf("encoding canned reply: %v", err)
	}
	s.ReplyRaw(http.StatusOK, string(bs))
}

// ReplyFault queues a 500 response carrying a SOAP fault.
func (s *Server) ReplyFault(code, msg string) {
	s.ReplyRaw(http.StatusInternalServerError, faultEnvelope(code, msg))
}

// ReplyRaw queues a response with the given status and body.
func (s *Server) ReplyRaw(status int, body string) {
	s.Enqueue(Reply{Status: status, Body: body})
}

// Enqueue queues r as the answer to a future request.
func (s *Server) Enqueue(r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies.Add(r)
}

// Pending returns the number of queued replies not yet served.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replies.Len()
}

// Requests returns the requests received so far, in arrival order.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// LastRequest returns the most recent request. It causes an
// immediate test failure with t.Fatal if there is none.
func (s *Server) LastRequest() *Request {
	s.t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		s.t.Fatal("no request received by fake SOAP server")
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	bs, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := &Request{
		Action: strings.Trim(r.Header.Get("SOAPAction"), `"`),
		Header: r.Header.Clone(),
		Body:   bs,
	}
	req.Username, req.Password, _ = r.BasicAuth()
	if tree, err := envelope.Decode(bs); err == nil {
		req.Tree = tree
	} else {
		s.t.Logf("fake SOAP server: request is not a valid envelope: %v", err)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	reply, ok := s.replies.Pop()
	s.mu.Unlock()

	if !ok {
		reply = Reply{
			Status: http.StatusInternalServerError,
			Body:   faultEnvelope("soap:Server", "no reply queued for "+req.Action),
		}
	}
	for k, vs := range reply.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.WriteHeader(reply.Status)
	io.WriteString(w, reply.Body)
}

func faultEnvelope(code, msg string) string {
	fault := wire.NewMapping("SOAP-ENV:Fault", wire.NewMapping(
		"faultcode", code,
		"faultstring", msg,
	))
	bs, err := envelope.Encode(fault, envelope.EncodeOptions{})
	if err != nil {
		// Scalars and mappings always encode.
		panic(err)
	}
	return string(bs)
}
