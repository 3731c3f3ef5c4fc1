// Package twilio provides a client for the Twilio Messages and Content APIs,
// limited to sending WhatsApp content templates.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL        = "https://api.twilio.com"
	defaultContentBaseURL = "https://content.twilio.com"
	apiVersion            = "2010-04-01"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Client sends template messages and looks up content templates.
type Client interface {
	// SendTemplate creates an outbound message rendered from a content template.
	SendTemplate(ctx context.Context, req TemplateMessage) (*Message, error)
	// FetchContent returns the content template with the given SID.
	FetchContent(ctx context.Context, contentSID string) (*Content, error)
}

// TemplateMessage is a content-template message to send.
// From and To carry the channel prefix, e.g. "whatsapp:+33612345678".
type TemplateMessage struct {
	From       string
	To         string
	ContentSID string
	Variables  map[string]string
}

// Message is the subset of the Message resource returned on creation.
type Message struct {
	SID         string `json:"sid"`
	Status      string `json:"status"`
	To          string `json:"to"`
	From        string `json:"from"`
	DateCreated string `json:"date_created"`
}

// Content is the subset of the Content resource used to verify templates.
type Content struct {
	SID          string            `json:"sid"`
	FriendlyName string            `json:"friendly_name"`
	Language     string            `json:"language"`
	Variables    map[string]string `json:"variables"`
}

// APIError is the error body Twilio returns for failed requests.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio: error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// ErrorCode returns the Twilio error code.
func (e *APIError) ErrorCode() int { return e.Code }

// HTTPStatus returns the HTTP status of the failed response.
func (e *APIError) HTTPStatus() int { return e.Status }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the Messages API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithContentBaseURL overrides the Content API base URL.
func WithContentBaseURL(u string) Option {
	return func(c *httpClient) {
		c.contentBaseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	accountSID     string
	authToken      string
	baseURL        string
	contentBaseURL string
	http           *http.Client
}

// NewClient creates a Twilio client authenticating with the account SID and
// auth token.
func NewClient(accountSID, authToken string, opts ...Option) Client {
	c := &httpClient{
		accountSID:     accountSID,
		authToken:      authToken,
		baseURL:        defaultBaseURL,
		contentBaseURL: defaultContentBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SendTemplate(ctx context.Context, req TemplateMessage) (*Message, error) {
	vars := req.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: marshal content variables")
	}

	form := url.Values{}
	form.Set("From", req.From)
	form.Set("To", req.To)
	form.Set("ContentSid", req.ContentSID)
	form.Set("ContentVariables", string(varsJSON))

	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/Messages.json", c.baseURL, apiVersion, url.PathEscape(c.accountSID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "twilio: create request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var msg Message
	if err := c.do(httpReq, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *httpClient) FetchContent(ctx context.Context, contentSID string) (*Content, error) {
	endpoint := fmt.Sprintf("%s/v1/Content/%s", c.contentBaseURL, url.PathEscape(contentSID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: create request")
	}

	var content Content
	if err := c.do(httpReq, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// do sends req with basic auth and decodes a 2xx body into out. Non-2xx
// responses are returned as *APIError.
func (c *httpClient) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "twilio: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return eris.Wrap(err, "twilio: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "twilio: unmarshal response")
	}
	return nil
}

// parseAPIError decodes a Twilio error body. Bodies without a code get the
// 20xxx code Twilio uses for the bare HTTP status (429 becomes 20429).
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == 0 {
		apiErr.Code = 20000 + status
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	apiErr.Status = status
	return apiErr
}
