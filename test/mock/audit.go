// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/edgegate/api/audit"
)

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) RecordDecision(ctx context.Context, decision audit.Decision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockAuditRepository) QueryDecisions(ctx context.Context, from, to time.Time, outcome string) ([]audit.Decision, error) {
	args := m.Called(ctx, from, to, outcome)
	return args.Get(0).([]audit.Decision), args.Error(1)
}
