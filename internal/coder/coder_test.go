package coder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"occubench/internal/dataset"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

func jobRows(t *testing.T) *dataset.RowSet {
	t.Helper()
	rows := dataset.MustNew("ID", "job_title", "job_description")
	add := func(vals ...dataset.Value) {
		if err := rows.Append(vals...); err != nil {
			t.Fatal(err)
		}
	}
	add(dataset.Int(1), dataset.Str("Nurse"), dataset.Str("Ward care"))
	add(dataset.Int(2), dataset.Missing(), dataset.Missing())
	add(dataset.Int(3), dataset.Str("Baker"), dataset.Missing())
	return rows
}

func column(t *testing.T, rows *dataset.RowSet, name string) []string {
	t.Helper()
	vals, err := rows.Column(name)
	if err != nil {
		t.Fatalf("Column(%q): %v", name, err)
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func TestCodeRows(t *testing.T) {
	var seen []Job
	c := CoderFunc(func(_ context.Context, job Job) ([]string, error) {
		seen = append(seen, job)
		if job.Title == "Nurse" {
			return []string{"2221", "3221"}, nil
		}
		return []string{"7512", "", "9412"}, nil
	})

	rows := jobRows(t)
	out, stats, err := CodeRows(context.Background(), c, rows, RunOptions{
		Fields:  Fields{Title: "job_title", Description: "job_description"},
		Limiter: rate.NewLimiter(rate.Inf, 1),
	})
	if err != nil {
		t.Fatalf("CodeRows: %v", err)
	}

	if diff := cmp.Diff(Stats{Rows: 3, Coded: 2, Skipped: 1}, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Job{{Title: "Nurse", Description: "Ward care"}, {Title: "Baker"}}, seen); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2221", "nan", "7512"}, column(t, out, "prediction_1")); diff != "" {
		t.Errorf("prediction_1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3221", "nan", "nan"}, column(t, out, "prediction_2")); diff != "" {
		t.Errorf("prediction_2 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nan", "nan", "9412"}, column(t, out, "prediction_3")); diff != "" {
		t.Errorf("prediction_3 mismatch (-want +got):\n%s", diff)
	}
	if rows.Has("prediction_1") {
		t.Error("input rows must not be modified")
	}
}

func TestCodeRows_Errors(t *testing.T) {
	boom := errors.New("boom")
	failing := CoderFunc(func(context.Context, Job) ([]string, error) { return nil, boom })
	opts := RunOptions{Fields: Fields{Title: "job_title"}, TopN: 1}

	if _, _, err := CodeRows(context.Background(), failing, jobRows(t), opts); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	opts.KeepGoing = true
	out, stats, err := CodeRows(context.Background(), failing, jobRows(t), opts)
	if err != nil {
		t.Fatalf("KeepGoing: %v", err)
	}
	if stats.Failed != 2 || stats.Skipped != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if diff := cmp.Diff([]string{"nan", "nan", "nan"}, column(t, out, "prediction_1")); diff != "" {
		t.Errorf("prediction_1 mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := CodeRows(context.Background(), failing, jobRows(t), RunOptions{Fields: Fields{Title: "title"}}); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
	if _, _, err := CodeRows(context.Background(), nil, jobRows(t), opts); err == nil {
		t.Error("expected error for nil coder")
	}
}

func TestCodeRows_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := CoderFunc(func(context.Context, Job) ([]string, error) { return []string{"1111"}, nil })

	_, _, err := CodeRows(ctx, c, jobRows(t), RunOptions{
		Fields:  Fields{Title: "job_title"},
		Limiter: rate.NewLimiter(1, 1),
	})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestParseCodes(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want []string
	}{
		{text: "1. 2221\n2. 3221\n3. 2222", n: 3, want: []string{"2221", "3221", "2222"}},
		{text: "2221, 2221, 5120", n: 3, want: []string{"2221", "5120"}},
		{text: "0110 then 12345 then 1111", n: 5, want: []string{"0110", "1111"}},
		{text: "2221 3221 2222", n: 1, want: []string{"2221"}},
		{text: "no codes here", n: 3, want: nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseCodes(tt.text, tt.n)); diff != "" {
			t.Errorf("ParseCodes(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestPredictionColumns(t *testing.T) {
	if diff := cmp.Diff([]string{"prediction_1", "prediction_2"}, PredictionColumns(2)); diff != "" {
		t.Errorf("PredictionColumns mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenAICoder(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "test-model",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "2221\n3221\n2221\n2222\n5120"}, "finish_reason": "stop"}]
}`)
	}))
	defer server.Close()

	c, err := NewOpenAICoder(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1/", Model: "test-model"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAICoder: %v", err)
	}
	codes, err := c.Code(context.Background(), Job{Title: "Staff nurse", Industry: "Hospital"})
	if err != nil {
		t.Fatalf("Code: %v", err)
	}

	if diff := cmp.Diff([]string{"2221", "3221", "2222"}, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 {
		t.Fatalf("unexpected request %+v", gotReq)
	}
	user := gotReq.Messages[1].Content
	if !strings.Contains(user, "Job title: Staff nurse") || !strings.Contains(user, "Industry: Hospital") || strings.Contains(user, "Job description") {
		t.Errorf("unexpected prompt %q", user)
	}
}

func TestOpenAICoder_Errors(t *testing.T) {
	if _, err := NewOpenAICoder(OpenAIConfig{}, nil); err == nil {
		t.Error("expected error without API key")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
	}))
	defer server.Close()

	c, err := NewOpenAICoder(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Code(context.Background(), Job{Title: "Nurse"}); err == nil || !strings.Contains(err.Error(), "OpenAI API call failed") {
		t.Errorf("expected API error, got %v", err)
	}
}
