// Package backend provides the gateway client for the spreadsheet-backed
// booking endpoint. One base URL serves every exchange; non-submission
// operations are discriminated by an "action" field in the JSON body.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"
)

// ErrTransport marks exchanges that failed before a response body could be
// read (connection refused, timeout, cancelled context). Callers use it to
// decide whether the fire-and-forget fallback should run.
var ErrTransport = errors.New("backend transport failure")

// Client talks to the spreadsheet backend endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// Candidate is one result row from the address find action. Type is empty
// for providers that omit it; "Address" marks a concrete, resolvable record
// and anything else is a container needing further narrowing.
type Candidate struct {
	ID   string
	Type string
}

// IsAddress reports whether the candidate is a concrete address record.
func (c Candidate) IsAddress() bool {
	return strings.EqualFold(c.Type, "Address")
}

type rawCandidate struct {
	ID      string `json:"Id"`
	IDLower string `json:"id"`
	Type    string `json:"Type"`
}

type findResponse struct {
	Items []rawCandidate `json:"items"`
	OK    *bool          `json:"ok"`
	Error string         `json:"error"`
}

type getResponse struct {
	Item  map[string]interface{} `json:"item"`
	OK    *bool                  `json:"ok"`
	Error string                 `json:"error"`
}

type intentResponse struct {
	OK           bool   `json:"ok"`
	ClientSecret string `json:"client_secret"`
	Error        string `json:"error"`
}

// NewClient creates a gateway client for the configured backend URL.
func NewClient(cfg config.BackendConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetBackendURL(), "/"),
		http:    &http.Client{Timeout: cfg.GetBackendTimeout()},
		log:     log,
	}
}

// Submit posts the assembled booking payload. The response body is read as
// text and parsed as JSON when possible: an explicit ok:false surfaces the
// backend's error, and an unparseable body is treated as the error detail.
// Transport-level failures are wrapped in ErrTransport.
func (c *Client) Submit(ctx context.Context, payload map[string]interface{}) error {
	body, err := c.post(ctx, payload)
	if err != nil {
		return err
	}

	var parsed struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	text := strings.TrimSpace(string(body))
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		return fmt.Errorf("backend rejected submission: %s", text)
	}
	if parsed.OK != nil && !*parsed.OK {
		if parsed.Error == "" {
			parsed.Error = "unknown backend error"
		}
		return fmt.Errorf("backend rejected submission: %s", parsed.Error)
	}
	return nil
}

// SubmitFireAndForget re-issues the payload without reading the outcome.
// It exists for environments where the readable response path is blocked;
// delivery is not confirmed.
func (c *Client) SubmitFireAndForget(ctx context.Context, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("fire-and-forget submission failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// AddressFind queries the find action. Exactly one of query or container is
// sent: query for a raw postcode search, container to narrow into a prior
// candidate's ID.
func (c *Client) AddressFind(ctx context.Context, query, container string) ([]Candidate, error) {
	reqBody := map[string]interface{}{
		"action":  "addressfind",
		"country": "GB",
	}
	if container != "" {
		reqBody["container"] = container
	} else {
		reqBody["query"] = query
	}

	body, err := c.post(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var parsed findResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("address find: unexpected response: %s", strings.TrimSpace(string(body)))
	}
	if parsed.OK != nil && !*parsed.OK {
		return nil, fmt.Errorf("address find: %s", parsed.Error)
	}

	candidates := make([]Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		id := item.ID
		if id == "" {
			id = item.IDLower
		}
		if id == "" {
			continue
		}
		candidates = append(candidates, Candidate{ID: id, Type: item.Type})
	}
	return candidates, nil
}

// AddressGet fetches the full record for a concrete address candidate. The
// raw field map is returned untouched; the address package owns alias
// normalization.
func (c *Client) AddressGet(ctx context.Context, id string) (map[string]interface{}, error) {
	body, err := c.post(ctx, map[string]interface{}{
		"action": "addressget",
		"id":     id,
	})
	if err != nil {
		return nil, err
	}

	var parsed getResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("address get: unexpected response: %s", strings.TrimSpace(string(body)))
	}
	if parsed.OK != nil && !*parsed.OK {
		return nil, fmt.Errorf("address get: %s", parsed.Error)
	}
	if parsed.Item == nil {
		return nil, fmt.Errorf("address get: empty record for id %s", id)
	}
	return parsed.Item, nil
}

// CreatePaymentIntent requests a payment-intent client secret keyed by the
// computed amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountPence int64, refHint, email, name string) (string, error) {
	body, err := c.post(ctx, map[string]interface{}{
		"action":      "createPaymentIntent",
		"amountPence": amountPence,
		"refHint":     refHint,
		"email":       email,
		"name":        name,
	})
	if err != nil {
		return "", err
	}

	var parsed intentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("create payment intent: unexpected response: %s", strings.TrimSpace(string(body)))
	}
	if !parsed.OK || parsed.ClientSecret == "" {
		if parsed.Error == "" {
			parsed.Error = "no client secret returned"
		}
		return "", fmt.Errorf("create payment intent: %s", parsed.Error)
	}
	return parsed.ClientSecret, nil
}

func (c *Client) post(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal backend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	return data, nil
}
