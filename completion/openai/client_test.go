package openai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"nutricoach"
	"nutricoach/completion/openai"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := openai.NewClient(openai.ClientOpts{})
	should.Error(t, err)

	client, err := openai.NewClient(openai.ClientOpts{APIKey: "sk-test"})
	must.NoError(t, err)
	should.NotNil(t, client)
}

func TestComplete(t *testing.T) {
	var captured *http.Request
	var capturedBody map[string]any

	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		captured = req
		body, _ := io.ReadAll(req.Body)
		must.NoError(t, json.Unmarshal(body, &capturedBody))
		return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Sounds like a great breakfast!"}}]}`), nil
	}}

	client, err := openai.NewClient(openai.ClientOpts{
		APIKey:     "sk-test",
		ModelID:    "gpt-4o-mini",
		HTTPClient: doer,
	})
	must.NoError(t, err)

	content, err := client.Complete(context.Background(), []nutricoach.Message{
		{Role: nutricoach.RoleSystem, Content: "You are a nutrition coach."},
		{Role: nutricoach.RoleUser, Content: "I had 2 eggs"},
	})
	must.NoError(t, err)
	should.Equal(t, "Sounds like a great breakfast!", content)

	should.Equal(t, "Bearer sk-test", captured.Header.Get("Authorization"))
	should.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	should.Equal(t, "gpt-4o-mini", capturedBody["model"])
	should.Len(t, capturedBody["messages"], 2)
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		doFunc func(req *http.Request) (*http.Response, error)
	}{
		{
			name: "network error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "non-200 status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
			},
		},
		{
			name: "undecodable body",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, "not json"), nil
			},
		},
		{
			name: "no choices",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := openai.NewClient(openai.ClientOpts{APIKey: "sk-test", HTTPClient: &mockDoer{doFunc: tt.doFunc}})
			must.NoError(t, err)

			_, err = client.Complete(context.Background(), []nutricoach.Message{{Role: nutricoach.RoleUser, Content: "hi"}})
			should.Error(t, err)
		})
	}
}
