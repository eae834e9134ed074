package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"interview-analysis/internal/domain"
	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/adapter"
)

var _ adapter.AnalysisService = (*HTTPClient)(nil)

const (
	analyzePath = "/v1/interview-analysis/analyze"
	jobsPath    = "/v1/interview-analysis/jobs/"

	// error bodies are truncated to this many bytes in messages
	maxErrorBody = 512
)

// HTTPClient talks to the remote interview-analysis service over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zerolog.Logger
}

// NewHTTPClient returns a client rooted at baseURL. apiKey, when set, is sent
// as a bearer token.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zerolog.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", domain.ErrInvalidArgument, baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := logger.With().Str("component", "AnalysisHTTP").Logger()
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     &l,
	}, nil
}

// WithHTTPClient swaps the underlying client, mainly for tests.
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.client = hc
	return c
}

func (c *HTTPClient) SubmitJob(ctx context.Context, req model.JobRequest) (model.JobHandle, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.JobHandle{}, err
	}
	raw, err := c.do(ctx, "submit", http.MethodPost, analyzePath, body)
	if err != nil {
		return model.JobHandle{}, err
	}
	if !gjson.ValidBytes(raw) {
		return model.JobHandle{}, fmt.Errorf("%w: submit response is not JSON", domain.ErrProtocol)
	}
	res := gjson.GetManyBytes(raw, "job_id", "id")
	id := res[0].String()
	if id == "" {
		id = res[1].String()
	}
	if strings.TrimSpace(id) == "" {
		return model.JobHandle{}, fmt.Errorf("%w: submit response has no job id", domain.ErrProtocol)
	}
	return model.JobHandle{ID: id}, nil
}

func (c *HTTPClient) GetStatus(ctx context.Context, jobID string) (model.StatusSnapshot, error) {
	raw, err := c.do(ctx, "status", http.MethodGet, jobsPath+url.PathEscape(jobID)+"/status", nil)
	if err != nil {
		return model.StatusSnapshot{}, err
	}
	var snap model.StatusSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.StatusSnapshot{}, fmt.Errorf("%w: decode status: %v", domain.ErrProtocol, err)
	}
	if snap.ID == "" {
		snap.ID = jobID
	}
	return snap, nil
}

// GetResult returns the result body untouched. Anything but a JSON object is
// a protocol error.
func (c *HTTPClient) GetResult(ctx context.Context, jobID string) (json.RawMessage, error) {
	raw, err := c.do(ctx, "result", http.MethodGet, jobsPath+url.PathEscape(jobID)+"/result", nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: result is not a JSON object", domain.ErrProtocol)
	}
	return json.RawMessage(raw), nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("analysis service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, raw),
		}
	}
	return raw, nil
}

// errorMessage prefers a detail/message/error field from a JSON error body,
// then the raw body, then the status text.
func errorMessage(code int, body []byte) string {
	text := http.StatusText(code)
	if gjson.ValidBytes(body) {
		for _, path := range []string{"detail", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return text + ": " + v.String()
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return text
	}
	if len(s) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return text + ": " + s
}
