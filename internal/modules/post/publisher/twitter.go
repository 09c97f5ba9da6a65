package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dghubble/oauth1"
	imageService "github.com/reshetovitsme/fn-news-bridge/internal/modules/image/service"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// Tweet length budget and the default API hosts.
const (
	TwitterLimit = 280

	DefaultTwitterAPIURL    = "https://api.twitter.com"
	DefaultTwitterUploadURL = "https://upload.twitter.com"
)

// TwitterConfig holds the four OAuth 1.0a secrets and the API hosts.
type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string

	APIURL    string
	UploadURL string
}

// Twitter publishes posts as tweets.
type Twitter struct {
	cfg    TwitterConfig
	http   *http.Client
	images *imageService.Downloader
	logger *slog.Logger
}

// NewTwitter creates a Twitter publisher. Requests are signed with the
// configured keys; ctx may carry a base client under oauth1.HTTPClient.
func NewTwitter(ctx context.Context, cfg TwitterConfig, images *imageService.Downloader, logger *slog.Logger) *Twitter {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultTwitterAPIURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultTwitterUploadURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	config := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	return &Twitter{
		cfg:    cfg,
		http:   config.Client(ctx, token),
		images: images,
		logger: logger,
	}
}

func (t *Twitter) Name() string { return "twitter" }

func (t *Twitter) Limit() int { return TwitterLimit }

func (t *Twitter) Authenticate(ctx context.Context) error {
	errb := oops.In("twitter").With("context", "verify credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.APIURL+"/1.1/account/verify_credentials.json?skip_status=true", nil)
	if err != nil {
		return errb.Wrap(err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return errb.With("cause", err.Error()).Wrap(errors.ErrAuthentication)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errb.With("status", resp.StatusCode, "response", readSnippet(resp.Body)).Wrap(errors.ErrAuthentication)
	}
	return nil
}

func (t *Twitter) Publish(ctx context.Context, post domain.Post) error {
	errb := oops.In("twitter").With("item_id", post.ItemID)

	payload := tweetRequest{Text: post.Body}

	if !post.Image.IsZero() {
		mediaID, err := t.uploadImage(ctx, post.Image)
		if err != nil {
			t.logger.Warn("Posting without image", "item_id", post.ItemID, "error", err)
		} else {
			payload.Media = &tweetMedia{MediaIDs: []string{mediaID}}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errb.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.APIURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return errb.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return errb.With("cause", err.Error()).Wrap(errors.ErrPublishFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errb.With("status", resp.StatusCode, "response", readSnippet(resp.Body)).Wrap(errors.ErrPublishFailed)
	}

	var created tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
		t.logger.Debug("Tweet created", "item_id", post.ItemID, "tweet_id", created.Data.ID)
	}
	return nil
}

func (t *Twitter) uploadImage(ctx context.Context, img domain.Image) (string, error) {
	errb := oops.In("twitter").With("context", "media upload", "path", img.Path, "url", img.URL)

	var (
		data     []byte
		filename string
		err      error
	)
	if img.Path != "" {
		data, err = os.ReadFile(img.Path)
		filename = filepath.Base(img.Path)
	} else if t.images != nil {
		data, err = t.images.Download(ctx, img.URL)
		filename = filepath.Base(img.URL)
	} else {
		return "", errb.Errorf("no image downloader configured")
	}
	if err != nil {
		return "", errb.Wrap(err)
	}

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return "", errb.Wrap(err)
	}
	if _, err := part.Write(data); err != nil {
		return "", errb.Wrap(err)
	}
	if err := w.Close(); err != nil {
		return "", errb.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.UploadURL+"/1.1/media/upload.json", &form)
	if err != nil {
		return "", errb.Wrap(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.http.Do(req)
	if err != nil {
		return "", errb.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errb.With("status", resp.StatusCode, "response", readSnippet(resp.Body)).Wrap(errors.ErrUnexpectedStatus)
	}

	var uploaded mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", errb.Wrapf(err, "decode media response")
	}
	if uploaded.MediaIDString == "" {
		return "", errb.Errorf("media upload returned no id")
	}
	return uploaded.MediaIDString, nil
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type mediaResponse struct {
	MediaIDString string `json:"media_id_string"`
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
