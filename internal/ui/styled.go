package ui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// StyledRenderer colors progress lines and boxes the final summary.
type StyledRenderer struct {
	*PlainRenderer
}

// NewStyledRenderer creates a colored renderer for terminals.
func NewStyledRenderer(cfg Config) *StyledRenderer {
	p := NewPlainRenderer(cfg)
	p.styles = DefaultStyles()
	return &StyledRenderer{PlainRenderer: p}
}

// Report implements Renderer.
func (r *StyledRenderer) Report(rep *reconcile.Report) {
	if rep == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	r.writeReport(&buf, rep)
	body := strings.TrimRight(buf.String(), "\n")
	_, _ = fmt.Fprintln(r.out, r.styles.Panel.Render(body))
}
