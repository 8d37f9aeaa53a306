package plivo

import (
	"bytes"
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

const DefaultBaseURL = "https://api.plivo.com/v1"

// Client talks to the Plivo REST API. It is safe for concurrent use.
type Client struct {
	AuthID     string
	AuthToken  string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(authID, authToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		AuthID:    authID,
		AuthToken: authToken,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          18,
				MaxIdleConnsPerHost:   8,
				ResponseHeaderTimeout: timeout,
			},
			Timeout: timeout,
		},
	}
}

// CallParams are the fields of a call-create request.
type CallParams struct {
	From         string `json:"from"`
	To           string `json:"to"`
	AnswerURL    string `json:"answer_url"`
	AnswerMethod string `json:"answer_method,omitempty"`
}

type CallResponse struct {
	APIID       string
	Message     string
	RequestUUID string
}

// Error is returned when Plivo answers with a non-2xx status.
type Error struct {
	StatusCode int
	APIID      string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Message
}

type apiResponse struct {
	APIID       string          `json:"api_id"`
	Message     string          `json:"message"`
	RequestUUID json.RawMessage `json:"request_uuid"`
	Error       json.RawMessage `json:"error"`
}

// CreateCall places an outbound call. Transport failures are wrapped, API
// rejections come back as *Error.
func (c *Client) CreateCall(ctx context.Context, params CallParams) (*CallResponse, error) {
	curl := c.BaseURL + "/Account/" + url.PathEscape(c.AuthID) + "/Call/"

	body, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode call request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, curl, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "failed to build call request")
	}
	req.SetBasicAuth(c.AuthID, c.AuthToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "plivo request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read plivo response")
	}

	data := &apiResponse{}
	decodeErr := json.Unmarshal(raw, data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.APIID = data.APIID
			apiErr.Message = errorText(data.Error)
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, eris.Wrap(decodeErr, "failed to decode plivo response")
	}

	requestUUID, err := firstUUID(data.RequestUUID)
	if err != nil {
		return nil, err
	}

	return &CallResponse{
		APIID:       data.APIID,
		Message:     data.Message,
		RequestUUID: requestUUID,
	}, nil
}

// errorText flattens Plivo's error field, which is either a string or an object.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(raw)
}

// firstUUID accepts a single request uuid or the list Plivo returns for bulk calls.
func firstUUID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}

	return "", eris.New("plivo response has no request_uuid")
}
