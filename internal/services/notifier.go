package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/walletledger/backend/internal/models"
	"go.uber.org/zap"
)

// MovementQueue is the Redis list committed movements are pushed onto.
const MovementQueue = "ledger:movements"

// MovementNotifier publishes committed movements for downstream consumers.
// A nil notifier or nil client turns Publish into a no-op. Publish never
// affects the outcome of the movement; failures are only logged.
type MovementNotifier struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
}

func NewMovementNotifier(client *redis.Client) *MovementNotifier {
	return &MovementNotifier{client: client, queue: MovementQueue, timeout: 2 * time.Second}
}

func (n *MovementNotifier) Publish(ctx context.Context, receipt *Receipt) {
	if n == nil || n.client == nil || receipt == nil {
		return
	}

	event := models.MovementEvent{
		TransactionID: receipt.Transaction.ID,
		MovementID:    receipt.Movement.ID,
		Kind:          receipt.Movement.Kind,
		Amount:        receipt.Movement.Amount,
		FromAccountID: receipt.Movement.FromAccountID,
		ToAccountID:   receipt.Movement.ToAccountID,
		CreatedAt:     receipt.Movement.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("Failed to encode movement event", zap.String("transaction_id", event.TransactionID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.client.RPush(ctx, n.queue, string(payload)).Err(); err != nil {
		zap.L().Warn("Failed to publish movement event",
			zap.String("queue", n.queue),
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err))
	}
}
