package worker

import (
	"context"
	"log"

	"smarteventscape/internal/broker"
	"smarteventscape/internal/models"
	"smarteventscape/internal/redisclient"
	"smarteventscape/internal/service"
	"smarteventscape/internal/store"
	"smarteventscape/internal/util"

	"go.uber.org/zap"
)

// BookingWorker finishes bookings in the background: it deducts seats
// from the database, persists the QR code onto the booking row, and
// keeps the Redis seat counters in step with administrator changes.
// Consumption is idempotent via the processed_events table.
type BookingWorker struct {
	consumer      *broker.Consumer
	eventHandler  *broker.EventHandler
	store         *store.Store
	redis         *redisclient.Client
	confirmations *service.ConfirmationService
	logger        *zap.Logger
}

// NewBookingWorker creates a new booking worker
func NewBookingWorker(
	consumer *broker.Consumer,
	store *store.Store,
	redis *redisclient.Client,
	confirmations *service.ConfirmationService,
) *BookingWorker {
	w := &BookingWorker{
		consumer:      consumer,
		store:         store,
		redis:         redis,
		confirmations: confirmations,
		logger:        util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnBookingCreated(w.handleBookingCreated)
	eventHandler.OnEventCreated(w.handleEventCreated)
	eventHandler.OnEventDeleted(w.handleEventDeleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *BookingWorker) Start(ctx context.Context) error {
	log.Println("Starting booking worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *BookingWorker) Stop() error {
	log.Println("Stopping booking worker...")
	return w.consumer.Close()
}

func (w *BookingWorker) handleBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	// Seats were already deducted on the submit path when Redis was
	// unavailable; otherwise the deduction happens here, in the same
	// transaction as the processed mark so a redelivery cannot deduct
	// twice.
	quantity := event.Quantity
	if event.SeatsSyncedToDB {
		quantity = 0
	}

	applied, err := w.store.CommitSeatsProcessed(ctx, event.EventID, event.EventType, event.EventRefID, quantity)
	if err != nil {
		return err
	}
	if !applied {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Finalizing booking",
		zap.Int64("booking_id", event.BookingID),
		zap.String("reference", event.Reference))

	qr, err := w.confirmations.QRDataURI(event.Reference)
	if err != nil {
		// Non-fatal: the confirmation view regenerates the code on read.
		w.logger.Error("Failed to generate QR for booking",
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err))
		return nil
	}
	if err := w.store.SetBookingQRCode(ctx, event.BookingID, qr); err != nil {
		w.logger.Error("Failed to persist QR code",
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err))
	}
	return nil
}

func (w *BookingWorker) handleEventCreated(ctx context.Context, event *models.EventCreatedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	if err := w.redis.InitSeats(ctx, event.EventRefID, event.SeatsAvailable); err != nil {
		return err
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *BookingWorker) handleEventDeleted(ctx context.Context, event *models.EventDeletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	if err := w.redis.DeleteSeats(ctx, event.EventRefID); err != nil {
		return err
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

// SyncSeatsToRedis seeds the Redis seat counters from the database,
// run once at startup
func SyncSeatsToRedis(ctx context.Context, st *store.Store, rc *redisclient.Client) error {
	logger := util.GetLogger()
	logger.Info("Starting seat sync to Redis")

	seats, err := st.ListEventIDsWithSeats(ctx)
	if err != nil {
		return err
	}

	for eventID, available := range seats {
		if err := rc.InitSeats(ctx, eventID, available); err != nil {
			logger.Error("Failed to init Redis seat counter",
				zap.Int64("event_id", eventID),
				zap.Error(err))
		}
	}

	logger.Info("Seat sync completed", zap.Int("count", len(seats)))
	return nil
}
