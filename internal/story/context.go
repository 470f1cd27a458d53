package story

import "sort"

// Context carries handles from one phase to the next. It is not locked:
// phases run one at a time.
type Context struct {
	values map[string]any
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores v under key.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Get returns the value under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Keys returns the stored keys, sorted.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value under key if it has type T.
func Lookup[T any](c *Context, key string) (T, bool) {
	v, ok := c.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
