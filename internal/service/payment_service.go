package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"smarteventscape/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService simulates the payment provider. There is no gateway
// integration; a charge sleeps briefly and succeeds according to the
// configured rate, returning a provider transaction id.
type PaymentService struct {
	logger      *zap.Logger
	successRate float64
}

// NewPaymentService creates a new payment service
func NewPaymentService(successRate float64) *PaymentService {
	return &PaymentService{
		logger:      util.GetLogger(),
		successRate: successRate,
	}
}

// Charge processes a mock payment and returns the provider tx id
func (ps *PaymentService) Charge(ctx context.Context, amount int64, method string) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Charge")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	ps.logger.Info("Processing payment",
		zap.Int64("amount", amount),
		zap.String("method", method))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
	}

	if rand.Float64() >= ps.successRate {
		util.PaymentFailedTotal.Inc()
		ps.logger.Warn("Payment failed", zap.Int64("amount", amount))
		return "", fmt.Errorf("mock payment declined")
	}

	txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	util.PaymentSuccessTotal.Inc()
	ps.logger.Info("Payment succeeded",
		zap.Int64("amount", amount),
		zap.String("tx_id", txID))

	return txID, nil
}
