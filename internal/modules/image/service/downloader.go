package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/oops"
)

// maxImageSize bounds a single image download.
const maxImageSize = 20 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewSafeHTTPClient returns a client that refuses private, loopback and
// metadata addresses. Image URLs come from the remote feed, not from us.
func NewSafeHTTPClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// Downloader fetches remote images.
type Downloader struct {
	http HTTPClient
}

// NewDownloader creates a Downloader using client.
func NewDownloader(client HTTPClient) *Downloader {
	return &Downloader{http: client}
}

// Download returns the body of a 200 response for rawURL.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	errb := oops.In("image_download").With("url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errb.Wrapf(err, "create request")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, errb.Wrapf(err, "http get")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errb.With("status", resp.StatusCode).Wrap(errors.ErrUnexpectedStatus)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxImageSize)); err != nil {
		return nil, errb.Wrapf(err, "read body")
	}
	return buf.Bytes(), nil
}
