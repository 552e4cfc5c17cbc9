package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"brand-publisher/domain/model"

	"github.com/stretchr/testify/mock"
)

// memoryStore is an IJobStore kept in memory for queue tests.
type memoryStore struct {
	mu         sync.Mutex
	jobs       map[string]*model.PublishingJob
	logs       []*model.PublishingLogEntry
	updates    int
	failStatus map[model.JobStatus]bool
	failWrites bool
	failList   bool
}

func newMemoryStore(jobs ...*model.PublishingJob) *memoryStore {
	s := &memoryStore{jobs: map[string]*model.PublishingJob{}, failStatus: map[model.JobStatus]bool{}}
	for _, j := range jobs {
		s.jobs[j.ID] = j.Clone()
	}
	return s
}

func (s *memoryStore) CreateJob(_ context.Context, job *model.PublishingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("store down")
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memoryStore) GetJob(_ context.Context, id string) (*model.PublishingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return j.Clone(), nil
}

func (s *memoryStore) GetJobsByStatus(_ context.Context, status model.JobStatus) ([]*model.PublishingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus[status] {
		return nil, errors.New("query failed")
	}
	var out []*model.PublishingJob
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *memoryStore) UpdateJobStatus(_ context.Context, u model.JobStatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("store down")
	}
	j, ok := s.jobs[u.ID]
	if !ok {
		return model.ErrJobNotFound
	}
	s.updates++
	j.Status = u.Status
	j.RetryCount = u.RetryCount
	j.LastError = u.LastError
	j.ErrorDetails = u.ErrorDetails
	j.PlatformPostID = u.PlatformPostID
	j.PlatformURL = u.PlatformURL
	j.PublishedAt = u.PublishedAt
	j.ValidationResults = u.ValidationResults
	j.UpdatedAt = u.UpdatedAt
	return nil
}

func (s *memoryStore) ListJobs(_ context.Context, f model.JobFilter) ([]*model.PublishingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errors.New("query failed")
	}
	var out []*model.PublishingJob
	for _, j := range s.jobs {
		if f.Matches(j) {
			out = append(out, j.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memoryStore) GetJobHistory(ctx context.Context, brandID string, limit, offset int) ([]*model.PublishingJob, error) {
	return s.ListJobs(ctx, model.JobFilter{BrandID: brandID, Limit: limit, Offset: offset})
}

func (s *memoryStore) CreatePublishingLog(_ context.Context, e *model.PublishingLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *memoryStore) job(id string) *model.PublishingJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		return j.Clone()
	}
	return nil
}

func (s *memoryStore) logsFor(id string) []*model.PublishingLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.PublishingLogEntry
	for _, l := range s.logs {
		if l.JobID == id {
			out = append(out, l)
		}
	}
	return out
}

// scriptedDispatcher returns results in order, repeating the last one.
type scriptedDispatcher struct {
	mu      sync.Mutex
	results []model.DispatchResult
	calls   int
	block   chan struct{}
	started chan struct{}
	panics  bool
}

func (d *scriptedDispatcher) Dispatch(_ context.Context, _ *model.PublishingJob) model.DispatchResult {
	d.mu.Lock()
	d.calls++
	n := d.calls
	block, started := d.block, d.started
	d.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	if d.panics {
		panic("adapter exploded")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.results) == 0 {
		return model.DispatchOK("post-1", "https://example.test/post-1")
	}
	if n > len(d.results) {
		return d.results[len(d.results)-1]
	}
	return d.results[n-1]
}

func (d *scriptedDispatcher) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type mockConnections struct {
	mock.Mock
}

func (m *mockConnections) Upsert(ctx context.Context, conn *model.PlatformConnection) (*model.PlatformConnection, error) {
	args := m.Called(ctx, conn)
	if fn, ok := args.Get(0).(func(context.Context, *model.PlatformConnection) *model.PlatformConnection); ok {
		return fn(ctx, conn), args.Error(1)
	}
	c, _ := args.Get(0).(*model.PlatformConnection)
	return c, args.Error(1)
}

func (m *mockConnections) GetByID(ctx context.Context, id string) (*model.PlatformConnection, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.PlatformConnection)
	return c, args.Error(1)
}

func (m *mockConnections) GetByBrandPlatform(ctx context.Context, brandID string, platform model.Platform) (*model.PlatformConnection, error) {
	args := m.Called(ctx, brandID, platform)
	c, _ := args.Get(0).(*model.PlatformConnection)
	return c, args.Error(1)
}

func (m *mockConnections) UpdateTokens(ctx context.Context, id string, grant *model.TokenGrant) error {
	return m.Called(ctx, id, grant).Error(0)
}

func (m *mockConnections) UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockConnections) Disconnect(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCredentials struct {
	mock.Mock
}

func (m *mockCredentials) BuildAuthorizationURL(ctx context.Context, platform model.Platform, brandID, tenantID string) (*model.AuthorizationRequest, error) {
	args := m.Called(ctx, platform, brandID, tenantID)
	r, _ := args.Get(0).(*model.AuthorizationRequest)
	return r, args.Error(1)
}

func (m *mockCredentials) ExchangeCode(ctx context.Context, platform model.Platform, code, state string) (*model.TokenGrant, error) {
	args := m.Called(ctx, platform, code, state)
	g, _ := args.Get(0).(*model.TokenGrant)
	return g, args.Error(1)
}

func (m *mockCredentials) Refresh(ctx context.Context, conn *model.PlatformConnection) (*model.TokenGrant, error) {
	args := m.Called(ctx, conn)
	g, _ := args.Get(0).(*model.TokenGrant)
	return g, args.Error(1)
}

func (m *mockCredentials) IsExpired(conn *model.PlatformConnection) bool {
	return m.Called(conn).Bool(0)
}
