package transport

import (
	"context"
	"net"
)

// dialUnix returns a dial function that connects to the Unix domain
// socket at path, regardless of the address requested. The request
// URL's host then only serves as the Host header.
func dialUnix(path string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		addr := &net.UnixAddr{
			Net:  "unix",
			Name: path,
		}
		return d.DialContext(ctx, addr.Net, addr.Name)
	}
}
