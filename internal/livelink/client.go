package livelink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "livelink-telematics-backend/0.1.0"

// Candidate paths probed in order. Vendors following the AEMP naming
// convention expose one of these; 404s just mean "try the next one".
var (
	fleetPaths = []string{"/Fleet", "/fleet", "/Equipment", "/equipment", "/machines"}

	detailPathFormats = []string{"/Equipment/%s", "/equipment/%s", "/machines/%s", "/Fleet/%s"}

	// Keys under which a mapping-shaped fleet response may nest its list.
	fleetListKeys = []string{"equipment", "machines", "fleet", "data", "items", "results"}
)

// StatusError reports a non-404 HTTP error status from the vendor API.
type StatusError struct {
	Code   int
	Reason string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Reason)
}

// Client is a read-only HTTP client for a LiveLink-style telematics API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client against the given base URL using bearer token
// authentication.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// probeResult is the tagged outcome of a single candidate endpoint attempt.
type probeResult struct {
	outcome outcome
	body    []byte
	err     error
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeNotFound
	outcomeUnreachable
	outcomeHTTPError
)

func (c *Client) get(ctx context.Context, path string) probeResult {
	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return probeResult{outcome: outcomeUnreachable, err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return probeResult{outcome: outcomeUnreachable, err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return probeResult{outcome: outcomeUnreachable, err: err}
		}
		return probeResult{outcome: outcomeOK, body: body}
	case http.StatusNotFound:
		return probeResult{outcome: outcomeNotFound}
	default:
		return probeResult{
			outcome: outcomeHTTPError,
			err: &StatusError{
				Code:   resp.StatusCode,
				Reason: http.StatusText(resp.StatusCode),
				URL:    reqURL,
			},
		}
	}
}

// FetchFleet enumerates the account's machines by probing the candidate
// fleet-listing paths. 404 and transport failures move on to the next
// candidate; any other error status aborts, since it indicates a real API
// problem worth surfacing. When every candidate is exhausted an empty fleet
// is returned, not an error.
func (c *Client) FetchFleet(ctx context.Context) ([]map[string]any, error) {
	for _, path := range fleetPaths {
		res := c.get(ctx, path)
		switch res.outcome {
		case outcomeOK:
			return decodeFleet(res.body)
		case outcomeNotFound, outcomeUnreachable:
			continue
		case outcomeHTTPError:
			return nil, res.err
		}
	}

	log.Printf("no fleet endpoint responded successfully at %s", c.baseURL)
	return nil, nil
}

// FetchDetail fetches the per-machine detail document, probing the candidate
// detail paths in order. Unlike fleet resolution, every failure mode moves
// on to the next candidate: detail absence is non-fatal per machine, so a
// broken detail endpoint only costs us enrichment. Returns nil when no
// candidate yields a document.
func (c *Client) FetchDetail(ctx context.Context, machineID string) map[string]any {
	id := url.PathEscape(machineID)
	for _, format := range detailPathFormats {
		path := fmt.Sprintf(format, id)
		res := c.get(ctx, path)
		switch res.outcome {
		case outcomeOK:
			var doc map[string]any
			if err := json.Unmarshal(res.body, &doc); err != nil {
				log.Printf("GET %s%s: malformed detail body: %v", c.baseURL, path, err)
				continue
			}
			return doc
		case outcomeNotFound:
			continue
		case outcomeUnreachable, outcomeHTTPError:
			log.Printf("GET %s%s failed: %v", c.baseURL, path, res.err)
			continue
		}
	}
	return nil
}

func decodeFleet(body []byte) ([]map[string]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode fleet response: %w", err)
	}

	switch v := payload.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		for _, key := range fleetListKeys {
			if list, ok := v[key].([]any); ok {
				return toRecords(list), nil
			}
		}
		// A mapping without a recognized list is a single machine.
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("unexpected fleet response shape %T", payload)
	}
}

func toRecords(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			log.Printf("skipping non-object fleet entry of type %T", item)
			continue
		}
		records = append(records, rec)
	}
	return records
}
