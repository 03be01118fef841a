package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inquiro/research-agent/internal/database"
	"github.com/inquiro/research-agent/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockTopicRepo implements repository.TopicRepository for HTTP handler tests.
type mockTopicRepo struct {
	createFn          func(ctx context.Context, topic *domain.Topic) error
	getFn             func(ctx context.Context, id uuid.UUID) (*domain.Topic, error)
	listFn            func(ctx context.Context, limit, offset int) ([]*domain.Topic, int64, error)
	updateStatusFn    func(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error
	deleteOlderThanFn func(ctx context.Context, cutoff time.Time, statuses []domain.TopicStatus) (int64, error)
}

func (m *mockTopicRepo) Create(ctx context.Context, topic *domain.Topic) error {
	if m.createFn != nil {
		return m.createFn(ctx, topic)
	}
	return nil
}

func (m *mockTopicRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTopicRepo) List(ctx context.Context, limit, offset int) ([]*domain.Topic, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockTopicRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TopicStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockTopicRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []domain.TopicStatus) (int64, error) {
	if m.deleteOlderThanFn != nil {
		return m.deleteOlderThanFn(ctx, cutoff, statuses)
	}
	return 0, nil
}

// mockStageLogRepo implements repository.StageLogRepository for HTTP handler tests.
type mockStageLogRepo struct {
	listFn func(ctx context.Context, topicID uuid.UUID) ([]*domain.StageLog, error)
}

func (m *mockStageLogRepo) Append(_ context.Context, _ *domain.StageLog) error { return nil }

func (m *mockStageLogRepo) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.StageLog, error) {
	if m.listFn != nil {
		return m.listFn(ctx, topicID)
	}
	return nil, nil
}

// mockResultRepo implements repository.ResultRepository for HTTP handler tests.
type mockResultRepo struct {
	listFn func(ctx context.Context, topicID uuid.UUID) ([]*domain.Result, error)
}

func (m *mockResultRepo) BulkInsert(_ context.Context, _ []*domain.Result) error { return nil }

func (m *mockResultRepo) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.Result, error) {
	if m.listFn != nil {
		return m.listFn(ctx, topicID)
	}
	return nil, nil
}

func (m *mockResultRepo) CountByTopic(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

// mockQueue implements taskqueue.Queue for HTTP handler tests.
type mockQueue struct {
	enqueueFn func(ctx context.Context, topicID uuid.UUID) error
	enqueued  []uuid.UUID
}

func (m *mockQueue) Enqueue(ctx context.Context, topicID uuid.UUID) error {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, topicID)
	}
	m.enqueued = append(m.enqueued, topicID)
	return nil
}

// mockHealth implements the health checker for HTTP handler tests.
type mockHealth struct {
	status database.HealthStatus
}

func (m *mockHealth) Health(_ context.Context) database.HealthStatus {
	return m.status
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestHTTPServer(topics *mockTopicRepo, logs *mockStageLogRepo, results *mockResultRepo, queue *mockQueue) *Server {
	s := &Server{
		topics:  topics,
		logs:    logs,
		results: results,
		queue:   queue,
		health:  &mockHealth{status: database.HealthStatus{Status: "healthy"}},
		logger:  zerolog.Nop(),
	}
	s.router = s.buildRouter()
	return s
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rr.Body.String(), err)
	}
}

func postTopic(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/topics", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serveHTTP(s, req)
}

// ---------------------------------------------------------------------------
// Submit topic
// ---------------------------------------------------------------------------

func TestSubmitTopicSuccess(t *testing.T) {
	var created *domain.Topic
	topics := &mockTopicRepo{
		createFn: func(_ context.Context, topic *domain.Topic) error {
			created = topic
			return nil
		},
	}
	queue := &mockQueue{}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, &mockResultRepo{}, queue)

	rr := postTopic(t, srv, `{"topic":"quantum computing"}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp submitTopicResponse
	decodeJSON(t, rr, &resp)

	if resp.TopicID == "" {
		t.Error("expected topic_id to be set")
	}
	if resp.Status != string(domain.TopicStatusQueued) {
		t.Errorf("expected status queued, got %q", resp.Status)
	}
	if resp.Topic != "quantum computing" {
		t.Errorf("unexpected topic text %q", resp.Topic)
	}

	if created == nil {
		t.Fatal("expected topic to be created")
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != created.ID {
		t.Errorf("expected created topic to be enqueued, got %v", queue.enqueued)
	}
}

func TestSubmitTopicTrimsWhitespace(t *testing.T) {
	var created *domain.Topic
	topics := &mockTopicRepo{
		createFn: func(_ context.Context, topic *domain.Topic) error {
			created = topic
			return nil
		},
	}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	rr := postTopic(t, srv, `{"topic":"  quantum computing  "}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}
	if created.Topic != "quantum computing" {
		t.Errorf("expected trimmed topic, got %q", created.Topic)
	}
}

func TestSubmitTopicEmpty(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	rr := postTopic(t, srv, `{"topic":"   "}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "topic is required" {
		t.Errorf("expected error message 'topic is required', got %q", resp["error"])
	}
}

// Over-length topics are accepted and queued; the length rule is
// enforced by the workflow's input-parsing stage, which records the
// rejection as a failed stage log.
func TestSubmitTopicOverLengthIsQueued(t *testing.T) {
	var created *domain.Topic
	topics := &mockTopicRepo{
		createFn: func(_ context.Context, topic *domain.Topic) error {
			created = topic
			return nil
		},
	}
	queue := &mockQueue{}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, &mockResultRepo{}, queue)

	rr := postTopic(t, srv, `{"topic":"`+strings.Repeat("x", 501)+`"}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}
	if created == nil || len(created.Topic) != 501 {
		t.Fatalf("expected the full topic text to be stored, got %+v", created)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != created.ID {
		t.Errorf("expected the over-length topic to be enqueued, got %v", queue.enqueued)
	}
}

func TestSubmitTopicInvalidJSON(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	rr := postTopic(t, srv, `{"topic":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSubmitTopicEnqueueFailure(t *testing.T) {
	queue := &mockQueue{
		enqueueFn: func(_ context.Context, _ uuid.UUID) error {
			return context.DeadlineExceeded
		},
	}
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, queue)

	rr := postTopic(t, srv, `{"topic":"quantum computing"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Get topic
// ---------------------------------------------------------------------------

func TestGetTopicSuccess(t *testing.T) {
	topic := domain.NewTopic("quantum computing")
	topic.Status = domain.TopicStatusCompleted

	topics := &mockTopicRepo{
		getFn: func(_ context.Context, id uuid.UUID) (*domain.Topic, error) {
			if id != topic.ID {
				return nil, domain.ErrNotFound
			}
			return topic, nil
		},
	}
	logs := &mockStageLogRepo{
		listFn: func(_ context.Context, _ uuid.UUID) ([]*domain.StageLog, error) {
			return []*domain.StageLog{
				{TopicID: topic.ID, StageNumber: 1, StageName: "Input Parsing", Status: domain.StageStatusCompleted, Message: "ok"},
			}, nil
		},
	}
	results := &mockResultRepo{
		listFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Result, error) {
			return []*domain.Result{
				{ID: uuid.New(), TopicID: topic.ID, Title: "Quantum leap", URL: "https://example.com", Source: "Wikipedia"},
			}, nil
		},
	}
	srv := newTestHTTPServer(topics, logs, results, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/"+topic.ID.String(), nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp topicDetailResponse
	decodeJSON(t, rr, &resp)

	if resp.TopicID != topic.ID.String() {
		t.Errorf("unexpected topic_id %q", resp.TopicID)
	}
	if resp.Status != "completed" {
		t.Errorf("unexpected status %q", resp.Status)
	}
	if len(resp.Logs) != 1 || resp.Logs[0].StageName != "Input Parsing" {
		t.Errorf("unexpected logs %+v", resp.Logs)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Quantum leap" {
		t.Errorf("unexpected results %+v", resp.Results)
	}
}

func TestGetTopicNotFound(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/"+uuid.New().String(), nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetTopicInvalidUUID(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/not-a-uuid", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "topic_id must be a valid UUID" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

// ---------------------------------------------------------------------------
// List topics
// ---------------------------------------------------------------------------

func TestListTopics(t *testing.T) {
	first := domain.NewTopic("first topic")
	second := domain.NewTopic("second topic")

	var gotLimit, gotOffset int
	topics := &mockTopicRepo{
		listFn: func(_ context.Context, limit, offset int) ([]*domain.Topic, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Topic{first, second}, 120, nil
		},
	}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics?page_size=2", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotLimit != 2 || gotOffset != 0 {
		t.Errorf("expected limit=2 offset=0, got limit=%d offset=%d", gotLimit, gotOffset)
	}

	var resp listTopicsResponse
	decodeJSON(t, rr, &resp)

	if len(resp.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(resp.Topics))
	}
	if resp.TotalCount != 120 {
		t.Errorf("expected total_count 120, got %d", resp.TotalCount)
	}
	if resp.NextPageToken == "" {
		t.Error("expected next_page_token to be set")
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.NextPageToken)
	if err != nil {
		t.Fatalf("failed to decode page token: %v", err)
	}
	if string(decoded) != "2" {
		t.Errorf("expected page token offset 2, got %q", decoded)
	}
}

func TestListTopicsCapsPageSize(t *testing.T) {
	var gotLimit int
	topics := &mockTopicRepo{
		listFn: func(_ context.Context, limit, _ int) ([]*domain.Topic, int64, error) {
			gotLimit = limit
			return nil, 0, nil
		},
	}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics?page_size=10000", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotLimit != maxPageSize {
		t.Errorf("expected limit capped to %d, got %d", maxPageSize, gotLimit)
	}
}

// ---------------------------------------------------------------------------
// Sub-resources
// ---------------------------------------------------------------------------

func TestGetTopicResults(t *testing.T) {
	topic := domain.NewTopic("quantum computing")
	topics := &mockTopicRepo{
		getFn: func(_ context.Context, _ uuid.UUID) (*domain.Topic, error) { return topic, nil },
	}
	results := &mockResultRepo{
		listFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Result, error) {
			return []*domain.Result{
				{ID: uuid.New(), Title: "Quantum leap", Keywords: []string{"quantum"}, Source: "Wikipedia"},
			}, nil
		},
	}
	srv := newTestHTTPServer(topics, &mockStageLogRepo{}, results, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/"+topic.ID.String()+"/results", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp resultsResponse
	decodeJSON(t, rr, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Title != "Quantum leap" {
		t.Errorf("unexpected results %+v", resp.Results)
	}
}

func TestGetTopicLogsNotFound(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics/"+uuid.New().String()+"/logs", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Health endpoints
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHealthzUnhealthy(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})
	srv.health = &mockHealth{status: database.HealthStatus{Status: "unhealthy", Error: "connection refused"}}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	srv := newTestHTTPServer(&mockTopicRepo{}, &mockStageLogRepo{}, &mockResultRepo{}, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := serveHTTP(srv, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
