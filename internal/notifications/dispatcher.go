package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gcxportal/internal/middleware"
	"gcxportal/internal/observability"
)

const defaultQueueSize = 256

// Event is one notification to deliver: a template type plus the recipient
// contact details and the data the template renders from.
type Event struct {
	Type  string
	Email string
	Phone string
	Data  map[string]interface{}
}

// Dispatcher renders and delivers notification events on a background
// worker. Enqueue never blocks the caller: if the queue is full the event is
// dropped and counted, because a slow email provider must not stall an
// approval or a submission.
type Dispatcher struct {
	email        EmailSender
	sms          SMSSender
	emailEnabled bool
	smsEnabled   bool

	queue chan Event
	wg    sync.WaitGroup
	stop  chan struct{}
	once  sync.Once
}

// NewDispatcher creates a Dispatcher. Either sender may be nil when the
// corresponding channel is disabled.
func NewDispatcher(email EmailSender, sms SMSSender, emailEnabled, smsEnabled bool) *Dispatcher {
	return &Dispatcher{
		email:        email,
		sms:          sms,
		emailEnabled: emailEnabled && email != nil,
		smsEnabled:   smsEnabled && sms != nil,
		queue:        make(chan Event, defaultQueueSize),
		stop:         make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.stop:
				// Drain what is already queued before exiting.
				for {
					select {
					case ev := <-d.queue:
						d.deliver(ev)
					default:
						return
					}
				}
			case ev := <-d.queue:
				d.deliver(ev)
			}
		}
	}()
}

// Stop shuts the worker down after draining the queue.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
}

// Enqueue queues an event for delivery without blocking. Returns false when
// the event was dropped because the queue was full.
func (d *Dispatcher) Enqueue(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		observability.NotificationsDropped.Inc()
		middleware.Logger.Warn("notification queue full, event dropped",
			slog.String("type", ev.Type),
		)
		return false
	}
}

func (d *Dispatcher) deliver(ev Event) {
	tmpl, err := LookupTemplate(ev.Type)
	if err != nil {
		middleware.Logger.Error("unknown notification type",
			slog.String("type", ev.Type),
		)
		return
	}

	subject := RenderTemplate(tmpl.Subject, ev.Data)
	body := RenderTemplate(tmpl.Body, ev.Data)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if d.emailEnabled && ev.Email != "" {
		if err := d.email.SendEmail(ctx, ev.Email, subject, body); err != nil {
			observability.NotificationsSent.WithLabelValues("email", "failed").Inc()
			middleware.Logger.Error("email send failed",
				slog.String("type", ev.Type),
				slog.String("error", err.Error()),
			)
		} else {
			observability.NotificationsSent.WithLabelValues("email", "sent").Inc()
		}
	}

	if d.smsEnabled && ev.Phone != "" && SMSEligible(ev.Type) {
		if err := d.sms.SendSMS(ctx, ev.Phone, body); err != nil {
			observability.NotificationsSent.WithLabelValues("sms", "failed").Inc()
			middleware.Logger.Error("SMS send failed",
				slog.String("type", ev.Type),
				slog.String("error", err.Error()),
			)
		} else {
			observability.NotificationsSent.WithLabelValues("sms", "sent").Inc()
		}
	}
}
