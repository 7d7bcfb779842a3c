package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"timesheet-admin/internal/config"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/validation"
)

// HTTPSource reads the attendance feed over its JSON HTTP API.
type HTTPSource struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   *time.Ticker
	validator *validation.Validator
}

// NewHTTPSource creates a client from the external section of the config.
// A non-positive rate limit disables client-side throttling.
func NewHTTPSource(cfg config.ExternalConfig) (*HTTPSource, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.NewInvalidInputError("external.base_url", cfg.BaseURL, "base URL is required")
	}
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-API-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &HTTPSource{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    cfg.APIKey,
		apiKeyHdr: header,
		http:      &http.Client{Timeout: timeout},
		validator: validation.NewValidator(),
	}
	if cfg.RateLimitPerMin > 0 {
		s.limiter = time.NewTicker(time.Minute / time.Duration(cfg.RateLimitPerMin))
	}
	return s, nil
}

// Close stops the rate limiter.
func (s *HTTPSource) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

type periodResponse struct {
	Data Period `json:"data"`
}

type rowsResponse struct {
	Data []Row `json:"data"`
}

// GetCurrentPeriod fetches the current reporting period.
func (s *HTTPSource) GetCurrentPeriod(ctx context.Context) (Period, error) {
	var resp periodResponse
	if err := s.get(ctx, "/periods/current", nil, &resp); err != nil {
		return Period{}, errors.NewExternalError("get current period", err)
	}
	if err := s.validator.Struct(resp.Data); err != nil {
		return Period{}, errors.NewExternalError("decode current period", err)
	}
	return resp.Data, nil
}

// GetRows fetches a worker's attendance rows for a period. Rows that fail
// validation are rejected as a whole so a malformed feed never half-imports.
func (s *HTTPSource) GetRows(ctx context.Context, workerID, periodID string) ([]Row, error) {
	params := url.Values{}
	params.Set("period", periodID)

	var resp rowsResponse
	path := "/workers/" + url.PathEscape(workerID) + "/rows"
	if err := s.get(ctx, path, params, &resp); err != nil {
		return nil, errors.NewExternalError("get rows for worker "+workerID, err)
	}
	for i, row := range resp.Data {
		if err := s.validator.Struct(row); err != nil {
			return nil, errors.NewExternalError(fmt.Sprintf("decode row %d for worker %s", i, workerID), err)
		}
	}
	return resp.Data, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, params url.Values, out any) error {
	if s.limiter != nil {
		select {
		case <-s.limiter.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	endpoint := s.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set(s.apiKeyHdr, s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read attendance response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("attendance api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
