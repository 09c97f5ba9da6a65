package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/samber/oops"
)

// Output canvas size and the size the news image is fitted to.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
	ImageWidth   = 1024
	ImageHeight  = 512
)

// ComposerConfig locates the static assets and the output file.
type ComposerConfig struct {
	Background  string
	Logo        string
	Output      string
	LogoOffsetY int
}

// Composer renders a news image onto the branded canvas.
type Composer struct {
	cfg        ComposerConfig
	downloader *Downloader
	logger     *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(cfg ComposerConfig, downloader *Downloader, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		cfg:        cfg,
		downloader: downloader,
		logger:     logger,
	}
}

// Compose downloads imageURL, lays background, image and logo onto the
// canvas and writes the result to the configured output. It returns the
// output path. The output is replaced atomically, so a failed run never
// leaves a half written file behind.
func (c *Composer) Compose(ctx context.Context, imageURL string) (string, error) {
	errb := oops.In("image_compose").With("url", imageURL, "output", c.cfg.Output)

	data, err := c.downloader.Download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	remote, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errb.Wrapf(err, "decode remote image")
	}

	if b := remote.Bounds(); b.Dx() != ImageWidth || b.Dy() != ImageHeight {
		c.logger.Debug("Resizing news image", "url", imageURL, "width", b.Dx(), "height", b.Dy())
		remote = imaging.Fit(remote, ImageWidth, ImageHeight, imaging.Lanczos)
	}

	background, err := imaging.Open(c.cfg.Background)
	if err != nil {
		return "", errb.With("asset", c.cfg.Background).Wrapf(err, "open background")
	}

	logo, err := imaging.Open(c.cfg.Logo)
	if err != nil {
		return "", errb.With("asset", c.cfg.Logo).Wrapf(err, "open logo")
	}

	canvas := imaging.New(CanvasWidth, CanvasHeight, color.Black)
	canvas = imaging.Paste(canvas, imaging.Fill(background, CanvasWidth, CanvasHeight, imaging.Center, imaging.Lanczos), image.Pt(0, 0))

	rb := remote.Bounds()
	canvas = imaging.Overlay(canvas, remote, image.Pt((CanvasWidth-rb.Dx())/2, (CanvasHeight-rb.Dy())/2), 1.0)

	lb := logo.Bounds()
	canvas = imaging.Overlay(canvas, logo, image.Pt((CanvasWidth-lb.Dx())/2, c.cfg.LogoOffsetY), 1.0)

	if err := c.save(canvas); err != nil {
		return "", errb.Wrap(err)
	}

	return c.cfg.Output, nil
}

func (c *Composer) save(img image.Image) error {
	format, err := imaging.FormatFromFilename(c.cfg.Output)
	if err != nil {
		return oops.Wrapf(err, "unsupported output format")
	}

	dir := filepath.Dir(c.cfg.Output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return oops.Wrapf(err, "create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".compose-*"+filepath.Ext(c.cfg.Output))
	if err != nil {
		return oops.Wrapf(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := imaging.Encode(tmp, img, format); err != nil {
		_ = tmp.Close()
		return oops.Wrapf(err, "encode image")
	}
	if err := tmp.Close(); err != nil {
		return oops.Wrapf(err, "close temp file")
	}

	if err := os.Rename(tmp.Name(), c.cfg.Output); err != nil {
		return oops.Wrapf(err, "replace output")
	}
	return nil
}
