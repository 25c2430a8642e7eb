package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultRenderTimeout = 30 * time.Second

// A4 in inches with 18mm top/bottom and 16mm side margins.
const (
	paperWidth     = 8.27
	paperHeight    = 11.69
	marginVertical = 0.71
	marginSide     = 0.63
)

var ErrBrowserUnavailable = errors.New("headless browser unavailable")

var browserCandidates = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2933; margin: 0; }
h1 { font-size: 22px; margin: 0 0 4px; }
.meta { color: #616e7c; font-size: 12px; margin-bottom: 20px; }
.kpis { display: grid; grid-template-columns: repeat(3, 1fr); gap: 10px; margin-bottom: 24px; }
.kpi { border: 1px solid #e4e7eb; border-radius: 6px; padding: 10px 12px; }
.kpi .label { color: #616e7c; font-size: 11px; text-transform: uppercase; letter-spacing: .04em; }
.kpi .value { font-size: 20px; font-weight: 600; margin-top: 4px; }
h2 { font-size: 15px; margin: 0 0 8px; }
.digest { font-size: 13px; line-height: 1.55; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.PeriodLabel}} &middot; Generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04 UTC"}}</div>
<div class="kpis">
{{range .KPIs}}<div class="kpi"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
{{end}}</div>
<h2>Summary</h2>
<div class="digest">{{.Digest}}</div>
</body>
</html>
`))

// ChromeRenderer prints the HTML report through headless Chromium over the DevTools protocol.
type ChromeRenderer struct {
	binary  string
	timeout time.Duration
}

// NewChromeRenderer probes for a browser binary, trying path first and then the
// usual executable names on PATH. It returns ErrBrowserUnavailable when none is found.
func NewChromeRenderer(path string, timeout time.Duration) (*ChromeRenderer, error) {
	candidates := browserCandidates
	if path != "" {
		candidates = append([]string{path}, browserCandidates...)
	}

	for _, candidate := range candidates {
		binary, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		if timeout <= 0 {
			timeout = defaultRenderTimeout
		}
		return &ChromeRenderer{binary: binary, timeout: timeout}, nil
	}

	return nil, ErrBrowserUnavailable
}

func (c *ChromeRenderer) Binary() string {
	return c.binary
}

// TryRender starts a browser for this document only, so a wedged tab never
// outlives the call.
func (c *ChromeRenderer) TryRender(ctx context.Context, p Payload) ([]byte, error) {
	var html bytes.Buffer
	if err := reportTemplate.Execute(&html, p); err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(c.binary),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var doc []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html.String()).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			doc, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(marginVertical).
				WithMarginBottom(marginVertical).
				WithMarginLeft(marginSide).
				WithMarginRight(marginSide).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("browser render timed out after %s: %w", c.timeout, ctx.Err())
		}
		return nil, fmt.Errorf("browser render failed: %w", err)
	}

	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		return nil, errors.New("browser output is not a PDF document")
	}
	return doc, nil
}
