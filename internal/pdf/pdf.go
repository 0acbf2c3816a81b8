// Package pdf prints built manuscripts to PDF with headless Chrome.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-rsm/internal/fileutil"
	"github.com/alnah/go-rsm/internal/process"
)

// Sentinel errors for PDF export.
var (
	ErrBrowserConnect  = errors.New("failed to connect to browser")
	ErrPageCreate      = errors.New("failed to create browser page")
	ErrPageLoad        = errors.New("failed to load page")
	ErrPDFGeneration   = errors.New("PDF generation failed")
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidMargin   = errors.New("invalid margin")
)

// Page size names.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// DefaultTimeout bounds page load when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Options configures one export.
type Options struct {
	PageSize string  // "letter", "a4", "legal" (default: "letter")
	Margin   float64 // inches, all sides (default: 0.5)
}

// Validate checks the page settings. Zero values mean defaults.
func (o Options) Validate() error {
	if _, _, ok := paperSize(o.PageSize); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, o.PageSize)
	}
	if o.Margin != 0 && (o.Margin < MinMargin || o.Margin > MaxMargin) {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, o.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// paperSize returns the page dimensions in inches.
func paperSize(name string) (width, height float64, ok bool) {
	switch strings.ToLower(name) {
	case "", PageSizeLetter:
		return 8.5, 11, true
	case PageSizeA4:
		return 8.27, 11.69, true
	case PageSizeLegal:
		return 8.5, 14, true
	}
	return 0, 0, false
}

// renderer prints a local HTML file; the browser-backed one is replaced in
// tests.
type renderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts Options) ([]byte, error)
	Close() error
}

var _ renderer = (*rodRenderer)(nil)

// Exporter turns complete HTML documents into PDF bytes. An Exporter owns one
// browser and is not safe for concurrent use; use a Pool for parallel work.
type Exporter struct {
	renderer renderer
}

// NewExporter creates an Exporter. The browser starts on first Export.
func NewExporter(timeout time.Duration) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{renderer: &rodRenderer{timeout: timeout}}
}

// Export prints document to PDF.
func (e *Exporter) Export(ctx context.Context, document string, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tmpPath, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.renderer.RenderFromFile(ctx, tmpPath, opts)
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	if e.renderer != nil {
		return e.renderer.Close()
	}
	return nil
}

// rodRenderer implements renderer using go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// browserBin returns the configured browser binary, if any.
func browserBin() string {
	if bin := os.Getenv("RSM_BROWSER_BIN"); bin != "" {
		return bin
	}
	return os.Getenv("ROD_BROWSER_BIN")
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	bin := browserBin()
	if bin != "" {
		l = l.Bin(bin)
	}
	// Sandboxing fails in most CI and container setups.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		_ = process.KillTree(l.PID())
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	r.launcher = l
	return nil
}

// Close closes the browser and kills its process group.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		_ = process.KillTree(r.launcher.PID())
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

// RenderFromFile opens a local HTML file and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(printOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// printOptions maps Options onto Chrome's print parameters.
func printOptions(opts Options) *proto.PagePrintToPDF {
	width, height, _ := paperSize(opts.PageSize)
	margin := opts.Margin
	if margin == 0 {
		margin = DefaultMargin
	}
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
