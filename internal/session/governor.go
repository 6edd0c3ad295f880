package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
)

// Governor sits between the dispatcher and the store on the mutation path.
// It classifies failures and enforces the result partition invariant, but it
// never retries a mutation: a throttled bulk command is surfaced with the
// server-advertised wait so the caller decides, because a silent retry risks
// double-application if the first attempt actually landed.
type Governor struct {
	store service.TransactionStore
}

// NewGovernor creates a governor over the given store.
func NewGovernor(store service.TransactionStore) *Governor {
	return &Governor{store: store}
}

// Apply sends one bulk command through the store and normalizes the outcome.
func (g *Governor) Apply(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	result, err := g.store.ApplyBulk(ctx, cmd)
	if err != nil {
		if after, ok := common.RetryAfter(err); ok {
			slog.Warn("Bulk command throttled",
				"kind", cmd.Kind,
				"targets", len(cmd.TargetIDs),
				"retry_after", after)
			return nil, err
		}
		if common.IsTransport(err) {
			return nil, err
		}
		return nil, common.NewTransportError(fmt.Sprintf("bulk %s", cmd.Kind), err)
	}

	if verr := result.Validate(cmd.TargetIDs); verr != nil {
		return nil, common.NewTransportError(fmt.Sprintf("bulk %s", cmd.Kind),
			fmt.Errorf("malformed result: %w", verr))
	}

	return result, nil
}
