package middleware_test

import (
	"context"

	"github.com/aretw0/beatpilot/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (s *MockStore) Put(ctx context.Context, sessionID string, blob []byte) error {
	s.data[sessionID] = append([]byte(nil), blob...)
	return nil
}

func (s *MockStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	blob, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
