package plivo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCall(t *testing.T) {
	var got CallParams

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/Account/MAXXX/Call/", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "MAXXX", user)
		assert.Equal(t, "tok", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"api_id":"api-1","message":"call fired","request_uuid":"9834029e-58b6-11e1-b8b7-a5bd0e4e126f"}`))
	}))
	defer srv.Close()

	c := NewClient("MAXXX", "tok", srv.URL+"/v1/", 5*time.Second)
	resp, err := c.CreateCall(context.Background(), CallParams{
		From:         "+14155550100",
		To:           "+12025551234",
		AnswerURL:    "https://relay.example.org/answer_call?token=abc",
		AnswerMethod: http.MethodPost,
	})
	require.NoError(t, err)

	assert.Equal(t, "9834029e-58b6-11e1-b8b7-a5bd0e4e126f", resp.RequestUUID)
	assert.Equal(t, "api-1", resp.APIID)
	assert.Equal(t, "call fired", resp.Message)

	assert.Equal(t, "+14155550100", got.From)
	assert.Equal(t, "+12025551234", got.To)
	assert.Equal(t, "https://relay.example.org/answer_call?token=abc", got.AnswerURL)
	assert.Equal(t, "POST", got.AnswerMethod)
}

func TestClient_CreateCall_BulkUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"api_id":"api-1","message":"calls fired","request_uuid":["first","second"]}`))
	}))
	defer srv.Close()

	resp, err := NewClient("MAXXX", "tok", srv.URL, time.Second).CreateCall(context.Background(), CallParams{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.RequestUUID)
}

func TestClient_CreateCall_APIError(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "string error",
			status:  http.StatusBadRequest,
			body:    `{"api_id":"api-2","error":"invalid 'to' number"}`,
			message: "invalid 'to' number",
		},
		{
			name:    "object error",
			status:  http.StatusBadRequest,
			body:    `{"api_id":"api-2","error":{"to":["required field"]}}`,
			message: `{"to":["required field"]}`,
		},
		{
			name:    "plain text",
			status:  http.StatusUnauthorized,
			body:    "Authentication failed\n",
			message: "Authentication failed",
		},
		{
			name:    "empty body",
			status:  http.StatusServiceUnavailable,
			message: "HTTP 503",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient("MAXXX", "tok", srv.URL, time.Second).CreateCall(context.Background(), CallParams{})

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Error())
		})
	}
}

func TestClient_CreateCall_MissingUUID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"api_id":"api-1","message":"call fired"}`))
	}))
	defer srv.Close()

	_, err := NewClient("MAXXX", "tok", srv.URL, time.Second).CreateCall(context.Background(), CallParams{})
	assert.Error(t, err)
}

func TestClient_CreateCall_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient("MAXXX", "tok", url, time.Second).CreateCall(context.Background(), CallParams{})
	require.Error(t, err)

	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}
