package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/utils"
)

// Source fetches a report by lab identifier.
//
// Implementations return (nil, nil) when the report does not exist or the
// upstream could not deliver it; callers treat both as "not found".
type Source interface {
	Fetch(ctx context.Context, labID string) (*Report, error)
}

// HTTPSource reads reports from the LIS endpoint GET {BaseURL}/GetAllData/{labID}.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPSource creates a source rooted at baseURL (e.g. "http://lis.local/api").
func NewHTTPSource(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "report_source").Logger(),
	}
}

// Ensure interface compliance
var _ Source = (*HTTPSource)(nil)

// Fetch implements Source. Transport failures, non-2xx statuses, empty
// payloads and undecodable bodies are all logged and reported as not found.
func (s *HTTPSource) Fetch(ctx context.Context, labID string) (*Report, error) {
	endpoint := fmt.Sprintf("%s/GetAllData/%s", s.baseURL, url.PathEscape(labID))
	log := s.logger.With().Str("lab_id", labID).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Msg("build report request")
		return nil, nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("report fetch failed")
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Msg("report API returned non-success status")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("read report body")
		return nil, nil
	}

	r, err := Decode(body)
	if err != nil {
		log.Warn().Err(err).Msg("decode report payload")
		return nil, nil
	}
	if r == nil {
		log.Debug().Msg("report payload empty")
		return nil, nil
	}
	return r, nil
}

// Decode parses an upstream payload. The API answers with an array and the
// first element is the report; a bare object is accepted too. An empty
// array or an object without tests and identity decodes to nil.
func Decode(body []byte) (*Report, error) {
	var raw json.RawMessage
	if _, err := utils.SmartParse(string(body), &raw); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var list []Report
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode report list: %w", err)
		}
		if len(list) == 0 {
			return nil, nil
		}
		r := list[0]
		return Normalize(&r), nil
	case strings.HasPrefix(trimmed, "{"):
		var r Report
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		if r.LabID == "" && r.Fullname == "" && len(r.TestReqest) == 0 {
			return nil, nil
		}
		return Normalize(&r), nil
	default:
		return nil, nil
	}
}
