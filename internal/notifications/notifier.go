package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// StaffEventsChannel is the Redis pub/sub channel carrying portal events for
// the staff dashboard feed. Publishing through Redis keeps the feed working
// across multiple API instances.
const StaffEventsChannel = "portal:events:staff"

// StaffEvent is the payload delivered to connected staff dashboards.
type StaffEvent struct {
	Type          string `json:"type"`
	ApplicationID uint   `json:"application_id,omitempty"`
	TrackingCode  string `json:"tracking_code,omitempty"`
	Message       string `json:"message"`
	OccurredAt    string `json:"occurred_at"`
}

// Notifier publishes portal events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishStaffEvent sends an event to the staff dashboard channel. A nil
// Redis client makes this a no-op so a cache outage never blocks workflows.
func (n *Notifier) PublishStaffEvent(ctx context.Context, ev StaffEvent) error {
	if n.rdb == nil {
		return nil
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, StaffEventsChannel, string(payload)).Err()
}

// StartStaffSubscriber subscribes to the staff events channel and calls
// onMessage for each incoming payload.
func (n *Notifier) StartStaffSubscriber(
	ctx context.Context, onMessage func(payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, StaffEventsChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in StaffSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
