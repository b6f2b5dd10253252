package transport

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Cookies is a set of cookies sent with every request. It is safe
// for concurrent use.
type Cookies struct {
	mu sync.Mutex
	m  map[string]string
}

// Set stores a cookie, replacing any previous value.
func (c *Cookies) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]string{}
	}
	c.m[name] = value
}

// Get returns the value of the named cookie.
func (c *Cookies) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[name]
	return v, ok
}

// Delete removes the named cookie.
func (c *Cookies) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, name)
}

// Len returns the number of cookies.
func (c *Cookies) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Header returns the value of the Cookie header for the set: each
// cookie as "name=value; ", in name order. It returns "" for an
// empty set.
func (c *Cookies) Header() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ret strings.Builder
	for _, name := range slices.Sorted(maps.Keys(c.m)) {
		ret.WriteString(name)
		ret.WriteByte('=')
		ret.WriteString(c.m[name])
		ret.WriteString("; ")
	}
	return ret.String()
}
