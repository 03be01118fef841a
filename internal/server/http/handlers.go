package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inquiro/research-agent/internal/domain"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 50
	maxPageSize        = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

var validate = validator.New()

// submitTopicRequest is the JSON request body for submitting a research topic.
// Length limits are not enforced here; an over-length topic is accepted
// and fails the workflow's input-parsing stage with an audited log entry.
type submitTopicRequest struct {
	Topic string `json:"topic" validate:"required"`
}

// submitTopic handles POST /api/v1/topics.
// It stores the topic in the queued state and dispatches it to the
// task queue for asynchronous workflow execution.
func (s *Server) submitTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req submitTopicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	topic := domain.NewTopic(req.Topic)
	if err := s.topics.Create(ctx, topic); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.queue.Enqueue(ctx, topic.ID); err != nil {
		s.logger.Error().Err(err).
			Str("topic_id", topic.ID.String()).
			Msg("failed to enqueue research task")
		writeError(w, http.StatusInternalServerError, "failed to queue research task")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordTopicSubmitted()
	}

	s.logger.Info().
		Str("topic_id", topic.ID.String()).
		Msg("research topic submitted")

	writeJSON(w, http.StatusAccepted, submitTopicResponse{
		topicResponse: domainTopicToResponse(topic),
		Message:       "research task queued",
	})
}

// listTopics handles GET /api/v1/topics.
// It returns a paginated list of topics, most recent first.
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)

	topics, totalCount, err := s.topics.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]topicResponse, len(topics))
	for i, topic := range topics {
		out[i] = domainTopicToResponse(topic)
	}

	writeJSON(w, http.StatusOK, listTopicsResponse{
		Topics:        out,
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getTopic handles GET /api/v1/topics/{topicID}.
// It returns the topic with its full stage log history and results.
func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topicID, ok := parseUUID(w, chi.URLParam(r, "topicID"), "topic_id")
	if !ok {
		return
	}

	topic, err := s.topics.Get(ctx, topicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logs, err := s.logs.ListByTopic(ctx, topicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	results, err := s.results.ListByTopic(ctx, topicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, topicDetailResponse{
		topicResponse: domainTopicToResponse(topic),
		Logs:          domainStageLogsToResponse(logs),
		Results:       domainResultsToResponse(results),
	})
}

// getTopicLogs handles GET /api/v1/topics/{topicID}/logs.
func (s *Server) getTopicLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topicID, ok := parseUUID(w, chi.URLParam(r, "topicID"), "topic_id")
	if !ok {
		return
	}

	if _, err := s.topics.Get(ctx, topicID); err != nil {
		writeDomainError(w, err)
		return
	}

	logs, err := s.logs.ListByTopic(ctx, topicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stageLogsResponse{Logs: domainStageLogsToResponse(logs)})
}

// getTopicResults handles GET /api/v1/topics/{topicID}/results.
func (s *Server) getTopicResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topicID, ok := parseUUID(w, chi.URLParam(r, "topicID"), "topic_id")
	if !ok {
		return
	}

	if _, err := s.topics.Get(ctx, topicID); err != nil {
		writeDomainError(w, err)
		return
	}

	results, err := s.results.ListByTopic(ctx, topicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsResponse{Results: domainResultsToResponse(results)})
}

// validationMessage maps a validator error on submitTopicRequest to a
// client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Tag() == "required" {
			return "topic is required"
		}
	}
	return "invalid request"
}

// writeDomainError maps domain errors to HTTP status codes and writes
// a JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parsePaginationParams extracts page_size and page_token from query parameters.
// It applies default and maximum bounds to the page size.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsed, err := strconv.Atoi(pageSizeStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if pageToken := r.URL.Query().Get("page_token"); pageToken != "" {
		decoded, err := base64.StdEncoding.DecodeString(pageToken)
		if err == nil {
			if parsed, parseErr := strconv.Atoi(string(decoded)); parseErr == nil && parsed > 0 {
				offset = parsed
			}
		}
	}

	return limit, offset
}

// encodePageToken encodes the next offset as a base64 page token.
// Returns an empty string if there are no more results.
func encodePageToken(offset, limit, totalCount int) string {
	nextOffset := offset + limit
	if nextOffset < totalCount {
		return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(nextOffset)))
	}
	return ""
}
