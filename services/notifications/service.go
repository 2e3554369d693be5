package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"tuition_go/models"

	"github.com/go-redis/redis/v8"
)

// Queue item stored in Redis. The database row is written by the worker,
// so a lost queue item never leaves a half-recorded delivery.
type queuedReminder struct {
	Deliveries []models.ReminderLog `json:"deliveries"`
	CreatedAt  time.Time            `json:"created_at"`
}

const redisListKey = "reminders:queue"

// Sender delivers a text to one recipient on a channel.
type Sender interface {
	SendText(to string, message string) error
	Enabled() bool
}

// LogStore records deliveries.
type LogStore interface {
	CreateBatch(ctx context.Context, logs []models.ReminderLog) error
}

// WSHub interface for WebSocket broadcasting
type WSHub interface {
	BroadcastEvent(event string, payload interface{})
}

// Service delivers fee reminders, through a Redis queue when enabled and directly otherwise.
type Service struct {
	redis    *redis.Client
	useRedis bool
	line     Sender
	logs     LogStore
	wsHub    WSHub
	now      func() time.Time
}

func NewService(redisClient *redis.Client, useRedis bool, line Sender, logs LogStore) *Service {
	return &Service{
		redis:    redisClient,
		useRedis: useRedis && redisClient != nil,
		line:     line,
		logs:     logs,
		now:      time.Now,
	}
}

// SetWebSocketHub sets the WebSocket hub for real-time delivery updates
func (s *Service) SetWebSocketHub(hub WSHub) {
	s.wsHub = hub
}

// Queued reports whether deliveries go through the Redis list.
func (s *Service) Queued() bool {
	return s.useRedis
}

// QueueDepth returns how many deliveries wait in the Redis list, zero when the queue is off.
func (s *Service) QueueDepth(ctx context.Context) (int64, error) {
	if !s.useRedis {
		return 0, nil
	}
	return s.redis.LLen(ctx, redisListKey).Result()
}

// Enqueue stores deliveries using the Redis queue if enabled, else delivers directly.
func (s *Service) Enqueue(ctx context.Context, deliveries []models.ReminderLog) error {
	if len(deliveries) == 0 {
		return errors.New("no deliveries")
	}

	if s.useRedis {
		b, err := json.Marshal(queuedReminder{Deliveries: deliveries, CreatedAt: s.now().UTC()})
		if err != nil {
			return err
		}
		if err = s.redis.RPush(ctx, redisListKey, b).Err(); err == nil {
			return nil // queued successfully
		}
		log.Printf("[reminders] Redis queue failed, falling back to direct delivery: %v", err)
	}

	return s.deliverDirect(ctx, deliveries)
}

// deliverDirect sends LINE messages, records every delivery and notifies the dashboard.
// WhatsApp deliveries stay pending, staff open their click-to-chat link by hand.
func (s *Service) deliverDirect(ctx context.Context, deliveries []models.ReminderLog) error {
	sent := 0
	for i := range deliveries {
		d := &deliveries[i]
		if d.Channel != "line" {
			d.Status = "pending"
			continue
		}
		if s.line == nil || !s.line.Enabled() {
			d.Status = "failed"
			d.Error = "LINE messaging disabled"
			continue
		}
		if err := s.line.SendText(d.Recipient, d.Message); err != nil {
			d.Status = "failed"
			d.Error = err.Error()
			continue
		}
		at := s.now().UTC()
		d.Status = "sent"
		d.SentAt = &at
		sent++
	}

	if s.logs != nil {
		if err := s.logs.CreateBatch(ctx, deliveries); err != nil {
			return err
		}
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastEvent("reminders.delivered", map[string]interface{}{
			"total": len(deliveries),
			"sent":  sent,
		})
	}
	return nil
}

// StartWorker starts a background worker polling the Redis queue
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		log.Println("[reminders] Redis queue disabled; worker not started")
		return
	}
	go func() {
		log.Println("[reminders] Redis reminder worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				log.Println("[reminders] Worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch polls the redis queue and delivers items in batches.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	// LRange + LTrim keeps it safe for moderate concurrency
	for i := 0; i < 5; i++ { // up to 5 sub-batches per tick
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		// Trim immediately to avoid duplicates (best-effort)
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			log.Printf("[reminders] LTrim failed: %v", err)
		}
		for _, raw := range vals {
			var q queuedReminder
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				continue
			}
			if err := s.deliverDirect(ctx, q.Deliveries); err != nil {
				log.Printf("[reminders] delivery failed: %v", err)
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}
