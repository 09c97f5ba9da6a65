// Package client retrieves the current news payload from the news API.
package client

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// maxPayloadSize bounds how much of a response body is decoded.
const maxPayloadSize = 10 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues the news GET request.
type Client struct {
	http     HTTPClient
	url      string
	apiKey   string
	language string
}

// New creates a news client for the endpoint at rawURL.
func New(httpClient HTTPClient, rawURL, apiKey, language string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:     httpClient,
		url:      rawURL,
		apiKey:   apiKey,
		language: language,
	}
}

// Fetch returns the decoded payload. Only a 200 response declaring a JSON
// content type is accepted; anything else is reported with its status.
func (c *Client) Fetch(ctx context.Context) (*domain.News, error) {
	errb := oops.In("news_client").With("url", c.url)

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, errb.Wrapf(err, "invalid news url")
	}
	q := u.Query()
	q.Set("language", c.language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errb.Wrapf(err, "create request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errb.Wrapf(err, "http get")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errb.With("status", resp.StatusCode).Wrap(errors.ErrUnexpectedStatus)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isJSON(contentType) {
		return nil, errb.With("status", resp.StatusCode, "content_type", contentType).Wrap(errors.ErrUnexpectedContentType)
	}

	var news domain.News
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadSize)).Decode(&news); err != nil {
		return nil, errb.With("status", resp.StatusCode).Wrapf(err, "decode news payload")
	}

	return &news, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
