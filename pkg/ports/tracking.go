package ports

import (
	"context"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// StatementSender delivers activity statements to a record store.
// Implementations resolve every failure to a SendResult; they never return errors.
type StatementSender interface {
	Send(ctx context.Context, stmt domain.Statement, cfg *domain.LRSConfig) domain.SendResult
	SendBatch(ctx context.Context, stmts []domain.Statement, cfg *domain.LRSConfig) domain.SendResult
}
