package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/mock-server/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_FeedAndMailboxRoundTrip(t *testing.T) {
	srv := httptest.NewServer(newRouter(mock.NewStore(6, time.Now())))
	defer srv.Close()

	var feed models.Feed
	getJSON(t, srv.URL+"/launches/next/5", http.StatusOK, &feed)
	assert.Len(t, feed.Result, 5)
	for _, l := range feed.Result {
		_, err := l.Time(time.UTC)
		assert.NoError(t, err)
	}

	getJSON(t, srv.URL+"/mailbox/bot@example.com/latest", http.StatusNoContent, nil)

	resp, err := http.Post(srv.URL+"/admin/mail", "application/json", strings.NewReader(
		`{"to":"bot@example.com","from":"fan@example.com","subject":"subscribe",
		  "parts":[{"content_type":"text/plain","content":"subscribe"}]}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg models.InboundMessage
	getJSON(t, srv.URL+"/mailbox/bot@example.com/latest", http.StatusOK, &msg)
	assert.Equal(t, "fan@example.com", msg.From)
	assert.False(t, msg.ReceivedAt.IsZero())
	require.Len(t, msg.Parts, 1)
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func TestRouter_Delay(t *testing.T) {
	store := mock.NewStore(1, time.Now())
	r := newRouter(store)
	id := store.Upcoming(1, time.Now())[0].Key()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/launches/"+id+"/delay?minutes=90", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/launches/1/delay", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
