package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

//go:generate go run github.com/vektra/mockery/v2 --name SQSAPI --output mocks

// SQSAPI is the subset of the SQS client used by the publisher.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// State is the connection state of an SQSPublisher.
type State int

const (
	Connecting State = iota
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultQueues routes each event type to the queue its consumer reads.
var DefaultQueues = map[EventType]string{
	PurchaseCompleted: "ticket_notifications",
	AccountRegistered: "ticket_notifications",
	MilesCredited:     "miles_notifications",
}

const defaultMaxReconnectBackoff = 30 * time.Second

// SQSPublisher sends events to one SQS queue per event type.
// Queue URLs are resolved on connect. After a failure the publisher goes back
// to Connecting and the next Publish after the backoff delay reconnects.
type SQSPublisher struct {
	client  SQSAPI
	queues  map[EventType]string
	logger  *slog.Logger
	backoff *retry.ExponentialJitterBackoff
	now     func() time.Time

	mu       sync.Mutex
	state    State
	urls     map[EventType]string
	failures int
	retryAt  time.Time
}

// Make sure we conform to the interface
var _ Publisher = (*SQSPublisher)(nil)

// SQSOption configures an SQSPublisher.
type SQSOption func(*SQSPublisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SQSOption {
	return func(p *SQSPublisher) { p.logger = logger }
}

// WithClock sets the clock used for reconnect scheduling.
func WithClock(now func() time.Time) SQSOption {
	return func(p *SQSPublisher) { p.now = now }
}

// WithMaxBackoff caps the reconnect delay.
func WithMaxBackoff(d time.Duration) SQSOption {
	return func(p *SQSPublisher) { p.backoff = retry.NewExponentialJitterBackoff(d) }
}

// NewSQSPublisher creates a publisher in the Connecting state. Queues maps event
// types to queue names; nil uses DefaultQueues.
func NewSQSPublisher(client SQSAPI, queues map[EventType]string, opts ...SQSOption) *SQSPublisher {
	if queues == nil {
		queues = DefaultQueues
	}
	p := &SQSPublisher{
		client:  client,
		queues:  queues,
		logger:  slog.Default(),
		backoff: retry.NewExponentialJitterBackoff(defaultMaxReconnectBackoff),
		now:     time.Now,
		state:   Connecting,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current connection state.
func (p *SQSPublisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connect resolves every queue URL and moves the publisher to Ready.
func (p *SQSPublisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(ctx)
}

func (p *SQSPublisher) connectLocked(ctx context.Context) error {
	if p.state == Closed {
		return ErrClosed
	}

	resolved := make(map[string]string)
	urls := make(map[EventType]string, len(p.queues))
	for eventType, name := range p.queues {
		url, ok := resolved[name]
		if !ok {
			out, err := p.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
			if err != nil {
				p.markFailedLocked(err)
				return fmt.Errorf("%w: failed to resolve queue %s: %v", ErrPublish, name, err)
			}
			url = aws.ToString(out.QueueUrl)
			resolved[name] = url
		}
		urls[eventType] = url
	}

	p.urls = urls
	p.state = Ready
	p.failures = 0
	p.logger.Info("event publisher connected", "queues", len(resolved))
	return nil
}

func (p *SQSPublisher) markFailedLocked(err error) {
	p.failures++
	delay, bErr := p.backoff.BackoffDelay(p.failures, err)
	if bErr != nil {
		delay = defaultMaxReconnectBackoff
	}
	p.state = Connecting
	p.retryAt = p.now().Add(delay)
	p.logger.Warn("event publisher disconnected", "error", err, "attempt", p.failures, "retry_in", delay)
}

// Publish sends one event. It returns an error wrapping ErrPublish when the
// broker is unreachable; callers are expected to log and continue.
func (p *SQSPublisher) Publish(ctx context.Context, eventType EventType, payload any) error {
	body, err := json.Marshal(Envelope{Type: eventType, Data: payload, Timestamp: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal %s: %v", ErrPublish, eventType, err)
	}

	url, err := p.queueURL(ctx, eventType)
	if err != nil {
		return err
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(eventType)),
			},
		},
	})
	if err != nil {
		p.mu.Lock()
		if p.state == Ready {
			p.markFailedLocked(err)
		}
		p.mu.Unlock()
		return fmt.Errorf("%w: failed to send %s: %v", ErrPublish, eventType, err)
	}
	return nil
}

// queueURL returns the URL for eventType, reconnecting first when the backoff has elapsed.
func (p *SQSPublisher) queueURL(ctx context.Context, eventType EventType) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Closed:
		return "", ErrClosed
	case Connecting:
		if p.now().Before(p.retryAt) {
			return "", fmt.Errorf("%w: not connected, next attempt at %s", ErrPublish, p.retryAt.Format(time.RFC3339))
		}
		if err := p.connectLocked(ctx); err != nil {
			return "", err
		}
	}

	url, ok := p.urls[eventType]
	if !ok {
		return "", fmt.Errorf("%w: no queue for event type %s", ErrPublish, eventType)
	}
	return url, nil
}

// Close moves the publisher to Closed. Later publishes fail with ErrClosed.
func (p *SQSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Closed
	return nil
}
