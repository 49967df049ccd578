package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-checkout-flow/internal/aws"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/session"
)

// Processor turns checkout events into CloudWatch metrics and removes
// leftover session state for completed checkouts.
type Processor struct {
	metrics *aws.Metrics
	store   checkout.StateStore
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, sessionTable, metricsNamespace string) *Processor {
	return &Processor{
		metrics: aws.NewMetrics(clients.CloudWatch, metricsNamespace),
		store:   session.NewStore(clients.DynamoDB, sessionTable, 7*24*time.Hour),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev CheckoutEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received %s order=%s session=%s", ev.EventType, ev.OrderID, ev.SessionID)

	switch ev.EventType {
	case EventOrderPlaced:
		if err := p.metrics.CountOrderPlaced(ctx, ev.PaymentMethod); err != nil {
			return fmt.Errorf("count order placed: %w", err)
		}
		// the API clears session state best-effort; make sure nothing lingers
		if ev.SessionID != "" {
			if err := p.store.Clear(ctx, ev.SessionID); err != nil {
				return fmt.Errorf("clear session state: %w", err)
			}
		}
	case EventPaymentConfirmed:
		if err := p.metrics.CountPaymentConfirmed(ctx); err != nil {
			return fmt.Errorf("count payment confirmed: %w", err)
		}
	case EventPaymentFailed:
		if err := p.metrics.CountPaymentFailed(ctx); err != nil {
			return fmt.Errorf("count payment failed: %w", err)
		}
	default:
		// unknown events are skipped rather than retried into the DLQ
		log.Printf("[worker] skipping unknown event type %q", ev.EventType)
	}

	return nil
}
