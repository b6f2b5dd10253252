package transport

import (
	"context"
	"net/http"
)

type headerContextKey struct{}

// WithHeader returns a copy of ctx that adds the headers in h to
// requests sent with it. Headers set by an outer WithHeader are kept
// unless h replaces them.
func WithHeader(ctx context.Context, h http.Header) context.Context {
	merged := http.Header{}
	if prev, ok := ContextHeader(ctx); ok {
		for k, vs := range prev {
			merged[k] = vs
		}
	}
	for k, vs := range h {
		merged[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return context.WithValue(ctx, headerContextKey{}, merged)
}

// ContextHeader returns the headers added to ctx by [WithHeader].
func ContextHeader(ctx context.Context) (http.Header, bool) {
	v := ctx.Value(headerContextKey{})
	if v == nil {
		return nil, false
	}
	ret, ok := v.(http.Header)
	return ret, ok
}
