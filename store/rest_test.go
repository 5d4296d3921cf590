package store_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"nutricoach"
	"nutricoach/store"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func restResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestRESTStoreCreateMeal(t *testing.T) {
	var captured *http.Request
	var sent nutricoach.MealRecord

	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		captured = req
		body, _ := io.ReadAll(req.Body)
		must.NoError(t, json.Unmarshal(body, &sent))
		echoed, _ := json.Marshal([]nutricoach.MealRecord{sent})
		return restResponse(http.StatusCreated, string(echoed)), nil
	}}

	records := store.NewRESTStore("https://db.example.com/rest/v1", "service-key", "u1", doer)

	created, err := records.CreateMeal(context.Background(), nutricoach.MealRecord{
		Name:     "eggs",
		MealType: nutricoach.MealTypeBreakfast,
		MacroSet: nutricoach.MacroSet{Calories: 140, Protein: 12},
	})
	must.NoError(t, err)

	should.Equal(t, http.MethodPost, captured.Method)
	should.Equal(t, "https://db.example.com/rest/v1/meal_logs", captured.URL.String())
	should.Equal(t, "service-key", captured.Header.Get("apikey"))
	should.Equal(t, "Bearer service-key", captured.Header.Get("Authorization"))
	should.Equal(t, "return=representation", captured.Header.Get("Prefer"))

	should.NotEmpty(t, created.ID)
	should.Equal(t, "u1", created.UserID)
	should.Equal(t, "eggs", sent.Name)
	should.False(t, created.LoggedAt.IsZero(), "logged_at defaults to now")
}

func TestRESTStoreCreateMealFailure(t *testing.T) {
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		return restResponse(http.StatusUnauthorized, `{"message":"bad key"}`), nil
	}}
	records := store.NewRESTStore("https://db.example.com/rest/v1", "bad", "u1", doer)

	_, err := records.CreateMeal(context.Background(), nutricoach.MealRecord{Name: "eggs"})
	should.Error(t, err)
}

func TestRESTStoreListMeals(t *testing.T) {
	var captured *http.Request
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		captured = req
		return restResponse(http.StatusOK, `[{"id":"m2","user_id":"u1","meal_name":"dinner","meal_type":"dinner","calories":600,"protein":40,"carbs":50,"fat":20,"confidence":0.9,"logged_at":"2026-09-01T19:00:00Z"},{"id":"m1","user_id":"u1","meal_name":"lunch","meal_type":"lunch","calories":500,"protein":30,"carbs":45,"fat":15,"confidence":0.9,"logged_at":"2026-09-01T12:00:00Z"}]`), nil
	}}
	records := store.NewRESTStore("https://db.example.com/rest/v1", "key", "u1", doer)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	listed, err := records.ListMeals(context.Background(), "u1", from, from.Add(24*time.Hour))
	must.NoError(t, err)

	query := captured.URL.Query()
	should.Equal(t, "eq.u1", query.Get("user_id"))
	should.Equal(t, "logged_at.desc", query.Get("order"))

	must.Len(t, listed, 2)
	should.Equal(t, "dinner", listed[0].Name)
}

func TestRESTStoreDeleteMeal(t *testing.T) {
	var captured *http.Request
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		captured = req
		return restResponse(http.StatusNoContent, ""), nil
	}}
	records := store.NewRESTStore("https://db.example.com/rest/v1", "key", "u1", doer)

	must.NoError(t, records.DeleteMeal(context.Background(), "m1"))
	should.Equal(t, http.MethodDelete, captured.Method)
	should.Equal(t, "eq.m1", captured.URL.Query().Get("id"))
}
