package amqp

import (
	"context"

	"expenses/internal/app"
	"expenses/internal/log"
)

// Publisher is the publishing side of Client.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// NewObserver turns state events into change messages. Publish failures are
// logged and never surface to the action that caused the event.
func NewObserver(p Publisher, logger *log.Logger) app.Observer {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAMQP)
	return func(ev app.Event) {
		if ev.Type == app.StateLoaded {
			return
		}
		msg := NewChangeMessage(string(ev.Type), ev.ID)
		msg.Timestamp = ev.At
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.PublishChange(ctx, msg); err != nil {
			logger.Warn("Failed to publish change message",
				log.FieldEvent, msg.Type,
				"id", msg.ID,
				log.FieldError, err.Error(),
				log.FieldOperation, log.OpPublish)
		}
	}
}
