package service

import (
	"context"
	"fmt"
	"strings"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/websocket"
	"rag-chat-be/pkg/events"
	pktNats "rag-chat-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates. Implemented
// by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notice websocket.Notice)
}

// NotificationService bridges the NATS event bus to connected websocket
// clients: indexing outcomes and thread deletions show up in the UI
// without polling.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects carry the stream prefix, the payload type does not.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	switch typeCode {
	case events.TypeDocumentIndexed, events.TypeDocumentIndexFailed, events.TypeThreadDeleted:
	default:
		return nil
	}

	payload := event.Payload()
	userId, err := parseUserId(payload["user_id"])
	if err != nil {
		s.logger.Warn("NotificationService", "Event without a valid user_id, dropping", map[string]interface{}{
			"type": typeCode,
		})
		return nil
	}

	s.delivery.Send(userId, websocket.Notice{
		Type: typeCode,
		Data: payload,
	})
	return nil
}

func parseUserId(v interface{}) (uuid.UUID, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case string:
		return uuid.Parse(id)
	default:
		return uuid.Nil, fmt.Errorf("unsupported user_id type %T", v)
	}
}
