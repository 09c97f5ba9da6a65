package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"status": 200,
	"data": {
		"br": {"hash": "a1", "motds": [
			{"id": "br-1", "title": "Season Launch", "body": "Drop in.", "image": "https://cdn.example.com/1.png"}
		]},
		"creative": {"hash": "b2", "motds": []}
	}
}`

func TestFetch_SendsKeyAndLanguage(t *testing.T) {
	var gotKey, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotLang = r.URL.Query().Get("language")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/v2/news", "secret", "de")
	news, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "de", gotLang)

	items, err := news.Items(domain.ModeBattleRoyale)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Season Launch", items[0].Title)
}

func TestFetch_ToleratesNonStringIDs(t *testing.T) {
	payload := `{"status": 200, "data": {
		"br": {"motds": [
			{"id": "br-1", "title": "String id", "body": "a"},
			{"id": 1, "title": "Number id", "body": "b"},
			{"id": {"weird": 1}, "title": "Object id", "body": "c"}
		]},
		"creative": {"motds": [{"id": "c-1", "title": "Creative", "body": "d"}]}
	}}`
	c := New(&mockTransport{body: payload, statusCode: http.StatusOK, contentType: "application/json"}, "https://api.example.com/v2/news", "k", "en")

	news, err := c.Fetch(context.Background())
	require.NoError(t, err)

	items, err := news.Items(domain.ModeBattleRoyale)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "br-1", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
	assert.False(t, items[2].Identifiable())

	creative, err := news.Items(domain.ModeCreative)
	require.NoError(t, err)
	assert.Len(t, creative, 1)
}

type mockTransport struct {
	body        string
	statusCode  int
	contentType string
	err         error
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	header := http.Header{}
	if m.contentType != "" {
		header.Set("Content-Type", m.contentType)
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		wantIs    error
	}{
		{
			name:      "non ok status",
			transport: &mockTransport{body: `{}`, statusCode: 503, contentType: "application/json"},
			wantIs:    sharedErrors.ErrUnexpectedStatus,
		},
		{
			name:      "created is not ok",
			transport: &mockTransport{body: `{}`, statusCode: 201, contentType: "application/json"},
			wantIs:    sharedErrors.ErrUnexpectedStatus,
		},
		{
			name:      "html content type",
			transport: &mockTransport{body: "<html></html>", statusCode: 200, contentType: "text/html; charset=utf-8"},
			wantIs:    sharedErrors.ErrUnexpectedContentType,
		},
		{
			name:      "missing content type",
			transport: &mockTransport{body: samplePayload, statusCode: 200},
			wantIs:    sharedErrors.ErrUnexpectedContentType,
		},
		{
			name:      "transport error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantIs:    io.ErrUnexpectedEOF,
		},
		{
			name:      "malformed json",
			transport: &mockTransport{body: "{", statusCode: 200, contentType: "application/json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.transport, "https://news.example.com/v2/news", "k", "en")
			news, err := c.Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, news)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
			}
		})
	}
}

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON("application/json"))
	assert.True(t, isJSON("Application/JSON; charset=utf-8"))
	assert.False(t, isJSON("text/plain"))
	assert.False(t, isJSON(""))
}
