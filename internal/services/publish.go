package services

import (
	"context"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
	"github.com/sirupsen/logrus"
)

// publish sends events after a commit. A broker failure is logged and
// otherwise ignored: the state change already happened.
func publish(ctx context.Context, publisher events.Publisher, batch ...events.Event) {
	if publisher == nil {
		return
	}
	for _, event := range batch {
		if err := publisher.Publish(ctx, event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event":    event.Type,
				"order_id": event.OrderID,
			}).Error("Failed to publish event")
		}
	}
}
