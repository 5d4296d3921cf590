package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nutricoach"

	"github.com/google/uuid"
)

// RESTStore persists meal records against a PostgREST-style HTTP API: one
// row-oriented endpoint per table, filters passed as query parameters.
type RESTStore struct {
	baseURL    string
	apiKey     string
	user       string
	httpClient nutricoach.HTTPClient
}

func NewRESTStore(baseURL, apiKey, user string, httpClient nutricoach.HTTPClient) *RESTStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if user == "" {
		user = AnonymousUser
	}
	return &RESTStore{
		baseURL:    baseURL,
		apiKey:     apiKey,
		user:       user,
		httpClient: httpClient,
	}
}

func (s *RESTStore) CreateMeal(ctx context.Context, record nutricoach.MealRecord) (nutricoach.MealRecord, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	if record.UserID == "" {
		record.UserID = s.user
	}
	if record.LoggedAt.IsZero() {
		record.LoggedAt = record.CreatedAt
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nutricoach.MealRecord{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/meal_logs", bytes.NewReader(payload))
	if err != nil {
		return nutricoach.MealRecord{}, err
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nutricoach.MealRecord{}, fmt.Errorf("failed to create meal record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nutricoach.MealRecord{}, fmt.Errorf("failed to create meal record: %s", resp.Status)
	}

	var created []nutricoach.MealRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || len(created) == 0 {
		// The row was written; fall back to the locally assembled record.
		return record, nil
	}
	return created[0], nil
}

func (s *RESTStore) DeleteMeal(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/meal_logs?id=eq.%s", s.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete meal record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete meal record: %s", resp.Status)
	}
	return nil
}

func (s *RESTStore) ListMeals(ctx context.Context, userID string, from, to time.Time) ([]nutricoach.MealRecord, error) {
	endpoint := fmt.Sprintf("%s/meal_logs?user_id=eq.%s&logged_at=gte.%s&logged_at=lt.%s&order=logged_at.desc",
		s.baseURL,
		url.QueryEscape(userID),
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list meal records: %s", resp.Status)
	}

	var records []nutricoach.MealRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode meal records: %w", err)
	}
	return records, nil
}

func (s *RESTStore) CurrentUser(ctx context.Context) (string, error) {
	return s.user, nil
}

func (s *RESTStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
