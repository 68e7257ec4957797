package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	textpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sourcegraph/conc/panics"
)

var disableConfigDir sync.Once

// Transformer struct - PDF editing with pdfcpu and text extraction with ledongthuc/pdf
type Transformer struct{}

// NewTransformer func - Creates new PDF transformer
func NewTransformer() *Transformer {
	// pdfcpu otherwise writes a config dir under the user's home on first use
	disableConfigDir.Do(api.DisableConfigDir)
	return &Transformer{}
}

// Fresh configuration per call; pdfcpu mutates it while processing
func (t *Transformer) config() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// PageCount returns the number of pages of src
func (t *Transformer) PageCount(ctx context.Context, src string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := api.PageCountFile(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return count, nil
}

// Merge concatenates srcs in order into dst
func (t *Transformer) Merge(ctx context.Context, srcs []string, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(srcs) == 0 {
		return fmt.Errorf("nothing to merge")
	}
	if err := api.MergeCreateFile(srcs, dst, false, t.config()); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to merge pdfs: %w", err)
	}
	return nil
}

// SelectPages writes the given 1-based pages of src into dst in order
func (t *Transformer) SelectPages(ctx context.Context, src, dst string, pages []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages selected")
	}
	selection := make([]string, len(pages))
	for i, page := range pages {
		selection[i] = strconv.Itoa(page)
	}
	if err := api.CollectFile(src, dst, selection, t.config()); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to collect pages: %w", err)
	}
	return nil
}

// Optimize re-saves src into dst dropping redundant objects
func (t *Transformer) Optimize(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := api.OptimizeFile(src, dst, t.config()); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to optimize pdf: %w", err)
	}
	return nil
}

// FromImages writes one page per image into dst
func (t *Transformer) FromImages(ctx context.Context, images []string, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images to import")
	}
	if err := api.ImportImagesFile(images, dst, pdfcpu.DefaultImportConfig(), t.config()); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to import images: %w", err)
	}
	return nil
}

// ExtractText returns the plain text of every page joined by blank lines.
// Scanned documents yield an empty string.
func (t *Transformer) ExtractText(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	var err error
	recovered := panics.Try(func() {
		text, err = extractText(src)
	})
	if recovered != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", recovered.AsError())
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func extractText(src string) (string, error) {
	f, reader, err := textpdf.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	var buf bytes.Buffer
	for i, content := range pages {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(content)
	}
	return buf.String(), nil
}
