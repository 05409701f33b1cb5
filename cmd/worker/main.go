package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hollandpark-shiatsu/bookings/internal/platform/calendar"
	"github.com/hollandpark-shiatsu/bookings/internal/platform/mailer"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
	"github.com/hollandpark-shiatsu/bookings/internal/service"
	"github.com/hollandpark-shiatsu/bookings/pkg/config"
	"github.com/hollandpark-shiatsu/bookings/pkg/database"
	"github.com/hollandpark-shiatsu/bookings/pkg/events"
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
)

// The worker consumes booking events off NATS and handles the slow side
// effects the API should not block on: confirmation emails and Google
// Calendar sync.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	cal, err := calendar.New(ctx, cfg.Calendar)
	if err != nil {
		logger.Error("Failed to init calendar sync", "error", err)
		os.Exit(1)
	}

	bookingsRepo := postgres.NewBookingsRepo(pool)
	notify := service.NewNotifyService(newMailer(cfg.Email))

	w := &worker{bookings: bookingsRepo, notify: notify, cal: cal}

	if err := eventBus.QueueSubscribe(events.BookingCreated, "worker", w.onBookingCreated); err != nil {
		logger.Error("Failed to subscribe", "subject", events.BookingCreated, "error", err)
		os.Exit(1)
	}
	if err := eventBus.QueueSubscribe(events.BookingCanceled, "worker", w.onBookingCanceled); err != nil {
		logger.Error("Failed to subscribe", "subject", events.BookingCanceled, "error", err)
		os.Exit(1)
	}

	logger.Info("Worker started", "calendar_sync", cal != nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down worker...")
}

type worker struct {
	bookings postgres.BookingsRepo
	notify   *service.NotifyService
	cal      *calendar.Service
}

func (w *worker) onBookingCreated(msg *events.Message) {
	var ev events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Bad booking created event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.notify.BookingConfirmed(&ev); err != nil {
		logger.Error("Confirmation email failed", "error", err, "booking_id", ev.BookingID)
	}

	if w.cal == nil {
		return
	}
	eventID, adminID, err := w.cal.CreateSessionEvents(ctx, &ev)
	if err != nil {
		logger.Error("Calendar sync failed", "error", err, "booking_id", ev.BookingID)
		return
	}
	if err := w.bookings.SetCalendarEvents(ctx, ev.BookingID, eventID, adminID); err != nil {
		logger.Error("Failed to store calendar event IDs", "error", err, "booking_id", ev.BookingID)
	}
}

func (w *worker) onBookingCanceled(msg *events.Message) {
	var ev events.BookingCanceledEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Bad booking canceled event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.notify.BookingCanceled(&ev); err != nil {
		logger.Error("Cancellation email failed", "error", err, "booking_id", ev.BookingID)
	}

	if w.cal == nil {
		return
	}
	if err := w.cal.DeleteEvents(ctx, ev.CalendarEventID, ev.AdminEventID); err != nil {
		logger.Error("Calendar cleanup failed", "error", err, "booking_id", ev.BookingID)
	}
}

func newMailer(cfg config.EmailConfig) mailer.Service {
	if cfg.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.MailerSendKey != "" {
		return mailer.NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
}
