package surveysync

import (
	"context"
	"encoding/json"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
	"cloud.google.com/go/pubsub"
)

// RunNotifier publishes a completed run's summary for downstream
// consumers (dashboards, alerting). Best effort; a publish failure
// never fails the run.
type RunNotifier interface {
	PublishRunSummary(ctx context.Context, summary RunSummary) error
}

const defaultSummaryTopic = "survey-sync-events"

type pubSubNotifier struct {
	topicName   string
	createTopic bool
}

// NewPubSubNotifier returns a RunNotifier over Google Pub/Sub, or nil
// when summary publishing is disabled in the config.
func NewPubSubNotifier(cfg Config) RunNotifier {
	if !cfg.PublishSummary {
		return nil
	}
	topicName := cfg.SummaryTopic
	if topicName == "" {
		topicName = defaultSummaryTopic
	}
	return &pubSubNotifier{topicName: topicName, createTopic: cfg.CreateTopic}
}

func (n *pubSubNotifier) PublishRunSummary(ctx context.Context, summary RunSummary) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(n.topicName)
	if n.createTopic {
		topic, err = config.CreateTopicIfNotExists(client, n.topicName)
		if err != nil {
			return err
		}
	}

	data, _ := json.Marshal(summary)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}
