package handlers

import (
	"bytes"
	_ "embed"
	"log/slog"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/logfields"
)

//go:embed apidocs.md
var apiDocsMarkdown []byte

// DocsHandlers serves the operator documentation rendered from the
// embedded Markdown source. Rendering happens once on first request.
type DocsHandlers struct {
	once         sync.Once
	html         []byte
	renderErr    error
	errorAdapter *errors.HTTPErrorAdapter
}

func NewDocsHandlers() *DocsHandlers {
	return &DocsHandlers{errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleDocs writes the rendered documentation page.
func (h *DocsHandlers) HandleDocs(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.render)
	if h.renderErr != nil {
		internalErr := errors.WrapError(h.renderErr, errors.CategoryInternal, "failed to render documentation").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(h.html); err != nil {
		slog.Error("failed writing docs response", logfields.Error(err))
	}
}

func (h *DocsHandlers) render() {
	md := goldmark.New()
	var body bytes.Buffer
	if err := md.Convert(apiDocsMarkdown, &body); err != nil {
		h.renderErr = err
		return
	}

	var page bytes.Buffer
	page.WriteString(docsHTMLHead)
	page.Write(body.Bytes())
	page.WriteString(docsHTMLFoot)
	h.html = page.Bytes()
}

const docsHTMLHead = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>linkmon API</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 20px; background: #f5f5f5; }
        .container { max-width: 900px; margin: 0 auto; background: white; padding: 20px 40px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        pre { background: #f8f9fa; padding: 12px; border-radius: 6px; overflow-x: auto; }
        code { background: #f8f9fa; padding: 1px 4px; border-radius: 3px; font-size: 90%; }
        pre code { padding: 0; }
        h1 { border-bottom: 2px solid #eee; padding-bottom: 12px; }
        h2 { margin-top: 32px; }
    </style>
</head>
<body>
    <div class="container">
`

const docsHTMLFoot = `
    </div>
</body>
</html>`
