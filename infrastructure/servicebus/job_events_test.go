package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"brand-publisher/domain/model"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []*azservicebus.Message
	err    error
	closed bool
}

func (f *fakeSender) SendMessage(_ context.Context, m *azservicebus.Message, _ *azservicebus.SendMessageOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, *m.MessageID)
	}
	return out
}

func TestNewServiceBus_RequiresNamespace(t *testing.T) {
	_, err := NewServiceBus(context.Background(), "")
	assert.Error(t, err)
}

func TestJobEventSender_Send(t *testing.T) {
	fake := &fakeSender{}
	s := newJobEventSender(fake, "publishing-jobs")
	updated := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	url := "https://www.linkedin.com/feed/update/urn:li:share:1"
	job := &model.PublishingJob{
		ID: "job-1", BrandID: "brand-1", Platform: model.PlatformLinkedIn,
		Status: model.JobStatusPublished, RetryCount: 1, PlatformURL: &url,
		UpdatedAt: updated,
	}

	require.NoError(t, s.Send(context.Background(), job))
	require.Len(t, fake.sent, 1)
	msg := fake.sent[0]
	assert.Equal(t, fmt.Sprintf("job-1:published:1:%d", updated.UnixNano()), *msg.MessageID)
	assert.Equal(t, "published", *msg.Subject)
	assert.Equal(t, "linkedin", msg.ApplicationProperties["platform"])

	var evt model.JobEvent
	require.NoError(t, json.Unmarshal(msg.Body, &evt))
	assert.Equal(t, url, *evt.PlatformURL)

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, fake.closed)
}

func TestJobEventSender_SendError(t *testing.T) {
	s := newJobEventSender(&fakeSender{err: errors.New("amqp link detached")}, "publishing-jobs")
	assert.Error(t, s.Send(context.Background(), &model.PublishingJob{ID: "job-1"}))
}

func TestJobEventSender_Broadcast(t *testing.T) {
	fake := &fakeSender{}
	s := newJobEventSender(fake, "publishing-jobs")

	s.Broadcast(&model.PublishingJob{ID: "job-1", Status: model.JobStatusProcessing})

	assert.Eventually(t, func() bool { return fake.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestJobEventSender_BroadcastKeepsOrder(t *testing.T) {
	fake := &fakeSender{}
	s := newJobEventSender(fake, "publishing-jobs")
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	statuses := []model.JobStatus{
		model.JobStatusPending, model.JobStatusProcessing, model.JobStatusFailed,
		model.JobStatusPending, model.JobStatusProcessing, model.JobStatusPublished,
	}
	var want []string
	for i, st := range statuses {
		job := &model.PublishingJob{ID: "job-1", Status: st, UpdatedAt: base.Add(time.Duration(i) * time.Second)}
		want = append(want, fmt.Sprintf("job-1:%s:0:%d", st, job.UpdatedAt.UnixNano()))
		s.Broadcast(job)
	}

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, want, fake.ids())
	assert.True(t, fake.closed)
}

func TestJobMessage_RetriedAttemptGetsFreshID(t *testing.T) {
	first := &model.PublishingJob{
		ID: "job-1", Status: model.JobStatusProcessing,
		UpdatedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	// RetryJob resets the retry count, so only the update time tells the attempts apart.
	retried := *first
	retried.UpdatedAt = first.UpdatedAt.Add(time.Minute)

	a, err := jobMessage(first)
	require.NoError(t, err)
	b, err := jobMessage(&retried)
	require.NoError(t, err)
	assert.NotEqual(t, *a.MessageID, *b.MessageID)

	again, err := jobMessage(first)
	require.NoError(t, err)
	assert.Equal(t, *a.MessageID, *again.MessageID)
}

func TestJobEventSender_BroadcastAfterCloseIsDropped(t *testing.T) {
	fake := &fakeSender{}
	s := newJobEventSender(fake, "publishing-jobs")
	require.NoError(t, s.Close(context.Background()))

	s.Broadcast(&model.PublishingJob{ID: "job-1", Status: model.JobStatusPending})
	require.NoError(t, s.Close(context.Background()))
	assert.Zero(t, fake.count())
}
