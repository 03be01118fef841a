package httpserver

import (
	"time"

	"github.com/inquiro/research-agent/internal/domain"
)

// Topic response types for JSON serialization.

type topicResponse struct {
	TopicID   string    `json:"topic_id"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type submitTopicResponse struct {
	topicResponse
	Message string `json:"message"`
}

type stageLogResponse struct {
	StageNumber int       `json:"stage_number"`
	StageName   string    `json:"stage_name"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type resultResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type topicDetailResponse struct {
	topicResponse
	Logs    []stageLogResponse `json:"logs"`
	Results []resultResponse   `json:"results"`
}

type listTopicsResponse struct {
	Topics        []topicResponse `json:"topics"`
	NextPageToken string          `json:"next_page_token,omitempty"`
	TotalCount    int             `json:"total_count"`
}

type stageLogsResponse struct {
	Logs []stageLogResponse `json:"logs"`
}

type resultsResponse struct {
	Results []resultResponse `json:"results"`
}

func domainTopicToResponse(t *domain.Topic) topicResponse {
	return topicResponse{
		TopicID:   t.ID.String(),
		Topic:     t.Topic,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func domainStageLogsToResponse(logs []*domain.StageLog) []stageLogResponse {
	out := make([]stageLogResponse, len(logs))
	for i, entry := range logs {
		out[i] = stageLogResponse{
			StageNumber: entry.StageNumber,
			StageName:   entry.StageName,
			Status:      string(entry.Status),
			Message:     entry.Message,
			DurationMS:  entry.DurationMS,
			CreatedAt:   entry.CreatedAt,
		}
	}
	return out
}

func domainResultsToResponse(results []*domain.Result) []resultResponse {
	out := make([]resultResponse, len(results))
	for i, result := range results {
		keywords := result.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		out[i] = resultResponse{
			ID:        result.ID.String(),
			Title:     result.Title,
			URL:       result.URL,
			Summary:   result.Summary,
			Keywords:  keywords,
			Source:    result.Source,
			CreatedAt: result.CreatedAt,
		}
	}
	return out
}
