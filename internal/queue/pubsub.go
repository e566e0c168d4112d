package queue

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/apiv1"
	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"github.com/avast/retry-go/v4"
)

const pubsubAttempts = 3

// PubSub implements Queue on one Google Pub/Sub topic/subscription pair.
// Each job type gets its own pair. Messages are acknowledged on pull;
// Pub/Sub acks are best-effort, so delivery remains at-least-once and the
// consumers' state checks carry the idempotency burden.
type PubSub[J any] struct {
	publisher    *pubsub.PublisherClient
	subscriber   *pubsub.SubscriberClient
	topic        string // projects/{project}/topics/{topic}
	subscription string // projects/{project}/subscriptions/{subscription}
}

// PubSubConfig names the Pub/Sub resources for one job type.
type PubSubConfig struct {
	Topic        string
	Subscription string
}

// NewPubSub creates a queue over existing Pub/Sub resources.
func NewPubSub[J any](ctx context.Context, cfg PubSubConfig) (*PubSub[J], error) {
	if cfg.Topic == "" || cfg.Subscription == "" {
		return nil, fmt.Errorf("pubsub topic and subscription must be provided")
	}

	publisher, err := pubsub.NewPublisherClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create pubsub publisher: %w", err)
	}
	subscriber, err := pubsub.NewSubscriberClient(ctx)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("create pubsub subscriber: %w", err)
	}

	return &PubSub[J]{
		publisher:    publisher,
		subscriber:   subscriber,
		topic:        cfg.Topic,
		subscription: cfg.Subscription,
	}, nil
}

func (q *PubSub[J]) Publish(ctx context.Context, job J) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	err = retry.Do(func() error {
		_, err := q.publisher.Publish(ctx, &pubsubpb.PublishRequest{
			Topic:    q.topic,
			Messages: []*pubsubpb.PubsubMessage{{Data: data}},
		})
		return err
	}, retry.Context(ctx), retry.Attempts(pubsubAttempts))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", q.topic, err)
	}
	return nil
}

func (q *PubSub[J]) PullNext(ctx context.Context) (*J, error) {
	resp, err := retry.DoWithData(func() (*pubsubpb.PullResponse, error) {
		return q.subscriber.Pull(ctx, &pubsubpb.PullRequest{
			Subscription: q.subscription,
			MaxMessages:  1,
		})
	}, retry.Context(ctx), retry.Attempts(pubsubAttempts))
	if err != nil {
		return nil, fmt.Errorf("pull from %s: %w", q.subscription, err)
	}

	if len(resp.ReceivedMessages) == 0 {
		return nil, nil
	}
	msg := resp.ReceivedMessages[0]

	var job J
	if err := json.Unmarshal(msg.Message.Data, &job); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}

	// Ack failures are not surfaced: an unacked message redelivers after the
	// ack deadline and consumers are idempotent by contract.
	_ = q.subscriber.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: q.subscription,
		AckIds:       []string{msg.AckId},
	})
	return &job, nil
}

// Close releases both underlying clients.
func (q *PubSub[J]) Close() error {
	perr := q.publisher.Close()
	serr := q.subscriber.Close()
	if perr != nil {
		return perr
	}
	return serr
}
