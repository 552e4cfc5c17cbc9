package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

const (
	sendTimeout = 10 * time.Second
	eventBuffer = 256
)

// NewServiceBus connects to an Azure Service Bus namespace using the default Azure credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, errors.New("service bus namespace is not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

type IJobEventSender interface {
	Send(ctx context.Context, job *model.PublishingJob) error
	Broadcast(job *model.PublishingJob)
	Close(ctx context.Context) error
}

// JobEventSender forwards job transitions to a Service Bus queue. A single
// goroutine sends them in the order they were broadcast.
type JobEventSender struct {
	sender messageSender
	queue  string

	mu      sync.RWMutex
	stopped bool
	events  chan *model.PublishingJob
	done    chan struct{}
}

func NewJobEventSender(client *azservicebus.Client, queue string) (*JobEventSender, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return nil, err
	}
	return newJobEventSender(sender, queue), nil
}

func newJobEventSender(sender messageSender, queue string) *JobEventSender {
	s := &JobEventSender{
		sender: sender,
		queue:  queue,
		events: make(chan *model.PublishingJob, eventBuffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *JobEventSender) run() {
	defer close(s.done)
	for job := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		_ = s.Send(ctx, job)
		cancel()
	}
}

// jobMessage builds the message for one transition. The message id is stable per
// transition (job, status, attempt, update time) so broker-side duplicate
// detection drops replays but never a later attempt that reuses a retry count.
func jobMessage(job *model.PublishingJob) (*azservicebus.Message, error) {
	body, err := json.Marshal(model.NewJobEvent(job))
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s:%s:%d:%d", job.ID, job.Status, job.RetryCount, job.UpdatedAt.UnixNano())
	contentType := "application/json"
	subject := string(job.Status)
	return &azservicebus.Message{
		Body:        body,
		MessageID:   &id,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]interface{}{
			"brand_id": job.BrandID,
			"platform": string(job.Platform),
		},
	}, nil
}

func (s *JobEventSender) Send(ctx context.Context, job *model.PublishingJob) error {
	msg, err := jobMessage(job)
	if err != nil {
		return err
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).WithField("queue", s.queue).Error("Error while sending message.")
		return err
	}
	return nil
}

// Broadcast queues the event for the background sender. Events are dropped
// when the buffer is full.
func (s *JobEventSender) Broadcast(job *model.PublishingJob) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	select {
	case s.events <- job:
	default:
		logger.GetLogger().WithField("job_id", job.ID).Warn("Job event buffer full, dropping event")
	}
}

// Close sends what is still queued, then closes the sender.
func (s *JobEventSender) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.events)
	}
	s.mu.Unlock()
	<-s.done

	if err := s.sender.Close(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
		return err
	}
	return nil
}
