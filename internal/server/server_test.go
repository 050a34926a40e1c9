package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-qa/internal/github"
	"profile-qa/internal/models"
)

type fakeAnswerer struct {
	resp  models.PromptResponse
	err   error
	calls int
}

func (f *fakeAnswerer) Query(_ context.Context, username, question string) (models.PromptResponse, error) {
	f.calls++
	if f.err != nil {
		return models.PromptResponse{}, f.err
	}
	resp := f.resp
	resp.Username = username
	resp.Query = question
	return resp, nil
}

type fakeRecorder struct {
	records []models.Record
	err     error
}

func (f *fakeRecorder) StoreRecord(_ context.Context, rec models.Record) error {
	f.records = append(f.records, rec)
	return f.err
}

func doAsk(t *testing.T, s *Server, target, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var m map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), "body=%s", rr.Body.String())
	return rr, m
}

func TestAsk_OK(t *testing.T) {
	ans := &fakeAnswerer{resp: models.PromptResponse{Content: "This user has 8 public repositories.", State: models.StateAnswered}}
	rec := &fakeRecorder{}
	reg := prometheus.NewRegistry()
	s := New(ans, rec, reg)

	rr, body := doAsk(t, s, "/ask", `{"username":"octocat","question":"How many public repos does this user have?"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{
		"username": "octocat",
		"question": "How many public repos does this user have?",
		"answer":   "This user has 8 public repositories.",
	}, body)
	require.Len(t, rec.records, 1)
	assert.Equal(t, "octocat", rec.records[0].Username)
	assert.Equal(t, "This user has 8 public repositories.", rec.records[0].Answer)
	assert.NotEmpty(t, rec.records[0].RequestID)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.questions.WithLabelValues("answered")))
}

func TestAsk_HTMLFormat(t *testing.T) {
	ans := &fakeAnswerer{resp: models.PromptResponse{Content: "**8** repos", State: models.StateAnswered}}
	s := New(ans, nil, nil)

	rr, body := doAsk(t, s, "/ask?format=html", `{"username":"octocat","question":"q"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "**8** repos", body["answer"])
	assert.Equal(t, "<p><strong>8</strong> repos</p>", body["answer_html"])
}

func TestAsk_UpstreamFailureIs500(t *testing.T) {
	ans := &fakeAnswerer{err: &github.UpstreamError{Resource: "user", StatusCode: http.StatusNotFound}}
	rec := &fakeRecorder{}
	s := New(ans, rec, nil)

	rr, body := doAsk(t, s, "/ask", `{"username":"ghost","question":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "github user: unexpected status 404", body["detail"])
	assert.Empty(t, rec.records)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.questions.WithLabelValues("error")))
}

func TestAsk_RecordFailureStillAnswers(t *testing.T) {
	ans := &fakeAnswerer{resp: models.PromptResponse{Content: models.FallbackAnswer, State: models.StateExhausted}}
	rec := &fakeRecorder{err: errors.New("connection refused")}
	s := New(ans, rec, nil)

	rr, body := doAsk(t, s, "/ask", `{"username":"octocat","question":"q"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.FallbackAnswer, body["answer"])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.recordFailures))
}

func TestAsk_BadRequests(t *testing.T) {
	cases := map[string]string{
		"malformed json":   `{"username":`,
		"missing question": `{"username":"octocat"}`,
		"blank username":   `{"username":"  ","question":"q"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ans := &fakeAnswerer{}
			rr, body := doAsk(t, New(ans, nil, nil), "/ask", payload)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, body["detail"])
			assert.Zero(t, ans.calls)
		})
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	s := New(&fakeAnswerer{}, nil, nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "profileqa_request_duration_seconds")
}
