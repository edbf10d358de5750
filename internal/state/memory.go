package state

import (
	"github.com/patrickmn/go-cache"
)

// Memory is a session-scoped Backend: values live as long as the process.
type Memory struct {
	c *cache.Cache
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 0)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *Memory) Set(key, value string) error {
	m.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *Memory) Delete(keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
