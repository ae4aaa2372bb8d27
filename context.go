package codeact

import (
	"encoding/json"
	"sort"
	"sync"
)

// Context is a mutex-guarded key/value store shared across agents.
// Values are held as JSON so any agent, or the caller, can read them
// back into its own types. The zero value is not usable; use NewContext.
type Context struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]json.RawMessage)}
}

// Set stores a value under key, replacing any previous value. The value
// must be JSON-serializable.
func (c *Context) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &DeserializationError{Key: key, Err: err}
	}
	c.SetRaw(key, data)
	return nil
}

// SetRaw stores pre-encoded JSON under key.
func (c *Context) SetRaw(key string, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append(json.RawMessage(nil), data...)
}

// GetRaw returns the stored JSON for key.
func (c *Context) GetRaw(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.values[key]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), data...), true
}

// Contains reports whether key is set.
func (c *Context) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.values[key]
	return ok
}

// Remove deletes key.
func (c *Context) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Keys returns all keys in sorted order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes all keys.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]json.RawMessage)
}

// Get decodes the value stored under key into T. The second return is
// false when the key is absent; the error is non-nil when the stored
// JSON does not decode into T.
func Get[T any](c *Context, key string) (T, bool, error) {
	var zero T
	data, ok := c.GetRaw(key)
	if !ok {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, true, &DeserializationError{Key: key, Err: err}
	}
	return v, true, nil
}
