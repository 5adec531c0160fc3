package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"SentiFeed/internal/domain"
)

// HeaderSelfTrain marks an envelope as part of the self-training feedback
// loop instead of the normal publish flow.
const HeaderSelfTrain = "x-is-self-train"

// envelope is the on-wire snapshot of a news item. It is never persisted.
type envelope struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	SourceID    int64     `json:"source_id"`
	Score       *float64  `json:"score"`
	Published   bool      `json:"published"`
	AddedAt     time.Time `json:"added_at"`
}

func encodeItem(item domain.NewsItem) ([]byte, error) {
	return json.Marshal(envelope{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		SourceID:    item.SourceID,
		Score:       item.Score,
		Published:   item.Published,
		AddedAt:     item.AddedAt,
	})
}

func decodeItem(body []byte) (domain.NewsItem, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.NewsItem{}, fmt.Errorf("deserialize envelope: %w", err)
	}
	if env.ID == 0 {
		return domain.NewsItem{}, fmt.Errorf("envelope carries no news item")
	}
	return domain.NewsItem{
		ID:          env.ID,
		Title:       env.Title,
		Description: env.Description,
		URL:         env.URL,
		SourceID:    env.SourceID,
		Score:       env.Score,
		Published:   env.Published,
		AddedAt:     env.AddedAt,
	}, nil
}

func selfTrainHeaders(selfTrain bool) map[string]string {
	return map[string]string{HeaderSelfTrain: strconv.FormatBool(selfTrain)}
}

func selfTrainFromHeaders(headers map[string]string) (bool, error) {
	raw, ok := headers[HeaderSelfTrain]
	if !ok {
		return false, fmt.Errorf("header %s missing", HeaderSelfTrain)
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("header %s malformed: %w", HeaderSelfTrain, err)
	}
	return value, nil
}
