// Package document turns uploaded documents into ordered page images.
package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI for PDFs, default 200
	TempDir  string // parent for scratch dirs; "" -> os.TempDir()
}

// Image is one rasterized page. Page is 1-based and follows document order.
type Image struct {
	Page   int
	Format constants.Format
	Data   []byte
	Width  int
	Height int
}

// MIMEType is the media type of Data.
func (i Image) MIMEType() string { return i.Format.MIMEType() }

type Decoder struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Decoder)

// WithRunner replaces the command runner (tests stub pdftoppm with it).
func WithRunner(r Runner) Option {
	return func(d *Decoder) {
		if r != nil {
			d.runner = r
		}
	}
}

func NewDecoder(cfg Config, logger *slog.Logger, opts ...Option) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	d := &Decoder{cfg: cfg, runner: cmdRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode converts a PDF (any page count) or a single PNG/JPEG into page
// images in document order. Every failure is a DecodeError and yields no images.
func (d *Decoder) Decode(ctx context.Context, data []byte) ([]Image, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, common.NewDecodeError("empty document", nil)
	}

	format := Sniff(data)
	d.logger.Debug("decode start", "bytes", len(data), "format", format)

	var (
		pages []Image
		err   error
	)
	switch format {
	case constants.PDF:
		pages, err = d.rasterizePDF(ctx, data)
	case constants.PNG, constants.JPEG:
		var img Image
		img, err = decodeRaster(1, format, data)
		if err == nil {
			pages = []Image{img}
		}
	default:
		err = common.NewDecodeError("unsupported document format (expected PDF, PNG or JPEG)", nil)
	}
	if err != nil {
		d.logger.Warn("decode failed", "format", format, "bytes", len(data), "error", err)
		return nil, common.EnsureCode(err, common.CodeDecode, "decode document")
	}

	d.logger.Info("decode ok",
		"format", format,
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// decodeRaster validates that b is a decodable image and records its size.
func decodeRaster(page int, format constants.Format, b []byte) (Image, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return Image{}, common.NewDecodeError(fmt.Sprintf("page %d is not a valid image", page), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, common.NewDecodeError(fmt.Sprintf("page %d has empty dimensions", page), nil)
	}
	if name == "jpeg" {
		format = constants.JPEG
	} else if name == "png" {
		format = constants.PNG
	}
	return Image{Page: page, Format: format, Data: b, Width: cfg.Width, Height: cfg.Height}, nil
}
