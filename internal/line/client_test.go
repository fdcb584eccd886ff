package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyTextSendsExpectedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody replyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("access-token", nil, WithBaseURL(srv.URL))
	err := c.ReplyText(context.Background(), "tok-1", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/v2/bot/message/reply", gotPath)
	assert.Equal(t, "Bearer access-token", gotAuth)
	assert.Equal(t, "tok-1", gotBody.ReplyToken)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "text", gotBody.Messages[0].Type)
	assert.Equal(t, "hello", gotBody.Messages[0].Text)
}

func TestReplyTextNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	defer srv.Close()

	c := NewClient("access-token", nil, WithBaseURL(srv.URL))
	err := c.ReplyText(context.Background(), "expired", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Invalid reply token")
}

func TestReplyTextConnectionError(t *testing.T) {
	c := NewClient("access-token", nil, WithBaseURL("http://127.0.0.1:0"))
	err := c.ReplyText(context.Background(), "tok", "hello")
	assert.Error(t, err)
}
