package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/exam-grader/constants"
	"github.com/joseph-ayodele/exam-grader/internal/common"
)

type renderedPage struct {
	num  int
	path string
}

func (d *Decoder) rasterizePDF(ctx context.Context, data []byte) ([]Image, error) {
	tmpDir, err := os.MkdirTemp(d.cfg.TempDir, "eg-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			d.logger.Warn("failed to remove scratch dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := d.runner.Run(ctx, d.cfg.Pdftoppm, "-r", strconv.Itoa(d.cfg.DPI), "-png", in, prefix)
	if err != nil {
		return nil, common.NewDecodeError("pdf rasterization failed: "+common.Truncate(strings.TrimSpace(string(errb)), 512), err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	pages := orderPages(prefix, matches)
	if len(pages) == 0 {
		return nil, common.NewDecodeError("pdf rendered no pages", nil)
	}

	out := make([]Image, 0, len(pages))
	for _, p := range pages {
		b, err := os.ReadFile(p.path)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", p.num, err)
		}
		img, err := decodeRaster(p.num, constants.PNG, b)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

// orderPages sorts pdftoppm output (prefix-1.png, prefix-02.png, ...) by the
// numeric page suffix. Lexical order breaks once page numbers gain digits.
func orderPages(prefix string, matches []string) []renderedPage {
	pages := make([]renderedPage, 0, len(matches))
	for _, m := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), ".png")
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		pages = append(pages, renderedPage{num: n, path: m})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	return pages
}
