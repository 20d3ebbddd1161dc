// Package event carries cross-cutting notifications (email, analytics) out
// of the request path. Producers only see the INotifier contract; the
// broker-backed implementation lives with the deployment that needs it.
package event

import (
	"context"
	"go-dating-api/logger"
	"time"

	"github.com/sirupsen/logrus"
)

// Topic names shared with downstream consumers.
const (
	TopicUserCreated             = "user.created"
	TopicMatchCreated            = "match.created"
	TopicMessageSent             = "message.sent"
	TopicNotificationSent        = "notification.sent"
	TopicMissedConnectionCreated = "missed-connection.created"
)

// INotifier defines the contract for emitting domain events.
type INotifier interface {
	Emit(ctx context.Context, topic string, payload map[string]interface{}) error
	UserCreated(ctx context.Context, userID, email string) error
}

// LogNotifier implements INotifier by writing events to the application log.
// It is the default sink when no broker is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Emit(ctx context.Context, topic string, payload map[string]interface{}) error {
	logger.Log.WithFields(logrus.Fields{
		"topic":   topic,
		"payload": payload,
	}).Info("Domain event emitted")
	return nil
}

func (n *LogNotifier) UserCreated(ctx context.Context, userID, email string) error {
	return n.Emit(ctx, TopicUserCreated, map[string]interface{}{
		"userId":    userID,
		"email":     email,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
