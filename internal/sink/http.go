package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hiloapp/bg-companion/internal/bg/record"
)

const (
	submitTimeout   = 15 * time.Second
	submitRateDelay = time.Second
	maxBodyExcerpt  = 512
)

// HTTPSink POSTs the submission variant of a match record to a remote
// collection endpoint. One request per record, no retries: a match that
// fails to upload is still on disk via the file sink.
type HTTPSink struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewHTTPSink creates a sink targeting endpoint.
func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: submitTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(submitRateDelay), 1),
	}
}

func (s *HTTPSink) Name() string { return "submit" }

// Emit transforms the record and POSTs it. Non-2xx responses are errors;
// the response body excerpt is logged to aid debugging rejected payloads.
func (s *HTTPSink) Emit(ctx context.Context, rec *record.MatchRecord) error {
	sub := rec.ToSubmission()
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshaling submission: %w", err)
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting match record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
		log.Printf("[sink] submission rejected: status=%d body=%q", resp.StatusCode, body)
		return fmt.Errorf("submission endpoint returned status %d", resp.StatusCode)
	}

	log.Printf("[sink] submitted match record, placement=%d", rec.Placement)
	return nil
}
