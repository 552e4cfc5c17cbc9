package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

const publishTimeout = 10 * time.Second

// NewPubSub connects to Google Cloud Pub/Sub for the given project.
func NewPubSub(ctx context.Context, projectID string, opts ...option.ClientOption) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is not configured")
	}
	return pubsub.NewClient(ctx, projectID, opts...)
}

type IJobEventPublisher interface {
	Publish(ctx context.Context, job *model.PublishingJob) (string, error)
	Broadcast(job *model.PublishingJob)
}

const eventBuffer = 256

// JobEventPublisher fans job transitions out to a Pub/Sub topic. Events are
// published one at a time from a single goroutine with the job id as ordering
// key, so subscribers see one job's transitions in the order they happened.
type JobEventPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic

	sendMu  sync.RWMutex
	stopped bool
	events  chan *model.PublishingJob
	done    chan struct{}
}

func NewJobEventPublisher(client *pubsub.Client, topicName string) *JobEventPublisher {
	p := &JobEventPublisher{
		client:    client,
		topicName: topicName,
		events:    make(chan *model.PublishingJob, eventBuffer),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *JobEventPublisher) run() {
	defer close(p.done)
	for job := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if _, err := p.Publish(ctx, job); err != nil {
			logger.GetLogger().WithField("error", err).WithField("job_id", job.ID).Error("Error while publishing job event")
		}
		cancel()
	}
}

// ensureTopic resolves the topic once, creating it when it does not exist yet.
func (p *JobEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
			return nil, err
		}
	}
	topic.EnableMessageOrdering = true
	p.topic = topic
	return topic, nil
}

func (p *JobEventPublisher) Publish(ctx context.Context, job *model.PublishingJob) (string, error) {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(model.NewJobEvent(job))
	if err != nil {
		return "", err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data:        payload,
		OrderingKey: job.ID,
		Attributes: map[string]string{
			"job_id":   job.ID,
			"brand_id": job.BrandID,
			"platform": string(job.Platform),
			"status":   string(job.Status),
		},
	}).Get(ctx)
	if err != nil {
		// a failed ordered publish pauses the key until resumed
		topic.ResumePublish(job.ID)
		return "", err
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("job_id", job.ID).Debug("Job event published")
	return serverID, nil
}

// Broadcast queues the event for the background publisher. Events are dropped
// when the buffer is full.
func (p *JobEventPublisher) Broadcast(job *model.PublishingJob) {
	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.stopped {
		return
	}
	select {
	case p.events <- job:
	default:
		logger.GetLogger().WithField("job_id", job.ID).Warn("Job event buffer full, dropping event")
	}
}

// Stop drains queued events and flushes pending messages.
func (p *JobEventPublisher) Stop() {
	p.sendMu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.events)
	}
	p.sendMu.Unlock()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
