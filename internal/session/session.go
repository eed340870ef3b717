package session

import (
	"context"
	"sync"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUsername     = "username"
)

// Credentials is what survives a restart.
type Credentials struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	Username     string `json:"username"`
}

func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.Username != ""
}

type Memory struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *Memory) Save(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}
