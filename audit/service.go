// api/audit/service.go
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	logger "github.com/edgegate/api/logging"
	"github.com/edgegate/api/util"
)

type Service interface {
	RecordDecision(ctx context.Context, decision Decision) error
	QueryDecisions(ctx context.Context, from, to time.Time, outcome string) ([]Decision, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RecordDecision(ctx context.Context, decision Decision) error {
	return s.repo.RecordDecision(ctx, decision)
}

func (s *service) QueryDecisions(ctx context.Context, from, to time.Time, outcome string) ([]Decision, error) {
	return s.repo.QueryDecisions(ctx, from, to, outcome)
}

// EventGateDecision is the event type the gate publishes for every terminal
// decision.
const EventGateDecision = "gate.decision"

// Subscribe wires the audit service to gate decision events. Recording
// failures are logged and dropped; auditing never affects request handling.
func Subscribe(bus *util.EventBus, svc Service) {
	bus.Subscribe(EventGateDecision, func(ctx context.Context, event util.Event) error {
		decision, ok := event.Payload.(Decision)
		if !ok {
			logger.Error("Unexpected payload type on gate decision event")
			return nil
		}
		if err := svc.RecordDecision(ctx, decision); err != nil {
			logger.Warn("Failed to record gate decision", zap.Error(err))
		}
		return nil
	})
}
