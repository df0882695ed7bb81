// Package notifications delivers real-time events (new follower, new comment)
// to connected websocket clients, fanned out across instances through Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "notifications:user:"
	channelPattern = channelPrefix + "*"
)

// Event types.
const (
	EventFollow  = "follow"
	EventComment = "comment"
)

// Event is the JSON envelope written to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowPayload tells a user who started following them.
type FollowPayload struct {
	FollowerID       uint   `json:"follower_id"`
	FollowerUsername string `json:"follower_username"`
}

// CommentPayload tells a post author about a new comment.
type CommentPayload struct {
	PostID         uint   `json:"post_id"`
	PostTitle      string `json:"post_title"`
	CommentID      uint   `json:"comment_id"`
	AuthorID       uint   `json:"author_id"`
	AuthorUsername string `json:"author_username"`
}

// Sink receives events for local delivery.
type Sink interface {
	Broadcast(userID uint, message string)
}

// Notifier publishes events into per-user Redis channels. Without Redis it
// delivers straight to the local sink, if any.
type Notifier struct {
	rdb   *redis.Client
	local Sink
}

// NewNotifier creates a new Notifier. Both arguments may be nil.
func NewNotifier(rdb *redis.Client, local Sink) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// PublishUser sends an event to every connection of userID.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, eventType string, payload any) error {
	if n == nil {
		return nil
	}
	body, err := json.Marshal(Event{Type: eventType, Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	switch {
	case n.rdb != nil:
		if err := n.rdb.Publish(ctx, UserChannel(userID), string(body)).Err(); err != nil {
			return err
		}
	case n.local != nil:
		n.local.Broadcast(userID, string(body))
	default:
		return nil
	}
	observability.NotificationsPublished.WithLabelValues(eventType).Inc()
	return nil
}

// StartSubscriber subscribes to every user channel and calls onMessage for each
// message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, channelPattern)
	// Wait for the subscription so messages published right after are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channelPattern, err)
	}
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
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return channelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel is the inverse of UserChannel.
func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
