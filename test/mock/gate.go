// test/mock/gate.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edgegate/api/db"
	"github.com/edgegate/api/turnstile"
)

// MockTokenCache is a mock implementation of middleware.TokenCache
type MockTokenCache struct {
	mock.Mock
}

func (m *MockTokenCache) Lookup(ctx context.Context, token string) db.LookupResult {
	args := m.Called(ctx, token)
	return args.Get(0).(db.LookupResult)
}

func (m *MockTokenCache) MarkValid(ctx context.Context, token string) {
	m.Called(ctx, token)
}

// MockVerifier is a mock implementation of turnstile.Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) turnstile.Outcome {
	args := m.Called(ctx, token, remoteIP)
	return args.Get(0).(turnstile.Outcome)
}
