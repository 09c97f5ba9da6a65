package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/domain"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:test-token"

type telegramCall struct {
	method  string
	chatID  string
	text    string
	caption string
	photo   string
	upload  string
}

type fakeTelegram struct {
	mu    sync.Mutex
	calls []telegramCall
	fail  bool
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	_ = r.ParseMultipartForm(1 << 20)

	call := telegramCall{
		method:  method,
		chatID:  r.FormValue("chat_id"),
		text:    r.FormValue("text"),
		caption: r.FormValue("caption"),
		photo:   r.FormValue("photo"),
	}
	if file, header, err := r.FormFile("photo"); err == nil {
		data, _ := io.ReadAll(file)
		_ = file.Close()
		call.upload = header.Filename + ":" + string(data)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}

	switch method {
	case "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bridge","username":"bridge_bot"}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":10,"date":1700000000,"chat":{"id":-100,"type":"channel"}}}`))
	}
}

func newTelegram(t *testing.T, f *fakeTelegram) *Telegram {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	b, err := bot.New(testToken, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	return NewTelegram(b, "@fnnews", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTelegram_Authenticate(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	require.NoError(t, tg.Authenticate(context.Background()))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "getMe", f.calls[0].method)
}

func TestTelegram_AuthenticateFails(t *testing.T) {
	tg := newTelegram(t, &fakeTelegram{fail: true})

	err := tg.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sharedErrors.ErrAuthentication))
}

func TestTelegram_PublishText(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	require.NoError(t, tg.Publish(context.Background(), domain.Post{ItemID: "1", Body: "Patch Notes\nFixes"}))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "sendMessage", f.calls[0].method)
	assert.Equal(t, "@fnnews", f.calls[0].chatID)
	assert.Equal(t, "Patch Notes\nFixes", f.calls[0].text)
}

func TestTelegram_PublishRemotePhoto(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	post := domain.Post{ItemID: "1", Body: "caption", Image: domain.Image{URL: "https://cdn.example.com/a.png"}}
	require.NoError(t, tg.Publish(context.Background(), post))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "sendPhoto", f.calls[0].method)
	assert.Equal(t, "caption", f.calls[0].caption)
	assert.Equal(t, "https://cdn.example.com/a.png", f.calls[0].photo)
}

func TestTelegram_PublishUploadedPhoto(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	path := filepath.Join(t.TempDir(), "composed.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	require.NoError(t, tg.Publish(context.Background(), domain.Post{ItemID: "1", Body: "c", Image: domain.Image{Path: path}}))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "sendPhoto", f.calls[0].method)
	assert.Equal(t, "composed.jpg:jpeg", f.calls[0].upload)
}

func TestTelegram_PublishMissingFileFallsBackToURL(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	post := domain.Post{ItemID: "1", Body: "c", Image: domain.Image{Path: filepath.Join(t.TempDir(), "gone.jpg"), URL: "https://cdn.example.com/b.png"}}
	require.NoError(t, tg.Publish(context.Background(), post))
	require.Len(t, f.calls, 1)
	assert.Equal(t, "https://cdn.example.com/b.png", f.calls[0].photo)
}

func TestTelegram_PublishFails(t *testing.T) {
	tg := newTelegram(t, &fakeTelegram{fail: true})

	err := tg.Publish(context.Background(), domain.Post{ItemID: "1", Body: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sharedErrors.ErrPublishFailed))
}

func TestTelegram_NilBotIsDisabled(t *testing.T) {
	tg := NewTelegram(nil, "@fnnews", nil)

	assert.True(t, errors.Is(tg.Authenticate(context.Background()), sharedErrors.ErrPublisherDisabled))
	assert.True(t, errors.Is(tg.Publish(context.Background(), domain.Post{}), sharedErrors.ErrPublisherDisabled))
	assert.Equal(t, TelegramLimit, tg.Limit())
}
