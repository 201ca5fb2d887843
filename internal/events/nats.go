package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// NATSPublisher sends every event to "<prefix>.<event type>"
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// ConnectNATS dials the broker with reconnects enabled
func ConnectNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("pizza-order-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Subject returns the subject an event of the given type is published on
func (n *NATSPublisher) Subject(t Type) string {
	if n.prefix == "" {
		return string(t)
	}
	return n.prefix + "." + string(t)
}

func (n *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if n.nc == nil {
		return errors.New("nats connection is not initialized")
	}
	ctx, span := tracer().Start(ctx, "publish "+n.Subject(event.Type),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.system", "nats")),
	)
	defer span.End()

	msg, err := n.message(ctx, event)
	if err == nil {
		err = n.nc.PublishMsg(msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// message encodes the event and injects the trace context of ctx into the
// headers
func (n *NATSPublisher) message(ctx context.Context, event Event) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	msg := &nats.Msg{
		Subject: n.Subject(event.Type),
		Header:  nats.Header{},
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}

// Connected is used by the health check
func (n *NATSPublisher) Connected() bool {
	return n.nc != nil && n.nc.IsConnected()
}

func (n *NATSPublisher) Close() {
	if n.nc != nil {
		n.nc.Drain()
	}
}
