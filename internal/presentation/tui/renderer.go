package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderFunc turns step markdown into terminal output.
type RenderFunc func(string) (string, error)

type rendererConfig struct {
	style string
	width int
	plain bool
}

// RendererOption configures NewRenderer.
type RendererOption func(*rendererConfig)

// WithStyle selects a glamour standard style ("dark", "light", "notty", ...).
// "auto" or empty detects the terminal background.
func WithStyle(style string) RendererOption {
	return func(c *rendererConfig) {
		c.style = style
	}
}

// WithWordWrap wraps rendered output at width columns. Zero keeps glamour's default.
func WithWordWrap(width int) RendererOption {
	return func(c *rendererConfig) {
		c.width = width
	}
}

// WithPlain disables markdown rendering entirely.
func WithPlain(plain bool) RendererOption {
	return func(c *rendererConfig) {
		c.plain = plain
	}
}

// NewRenderer returns a function that renders markdown using glamour.
// If glamour cannot be initialized the markdown is returned as is.
func NewRenderer(opts ...RendererOption) RenderFunc {
	cfg := rendererConfig{style: "auto"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.plain {
		return Plain
	}

	gopts := []glamour.TermRendererOption{}
	if cfg.style == "" || cfg.style == "auto" {
		gopts = append(gopts, glamour.WithAutoStyle())
	} else {
		gopts = append(gopts, glamour.WithStandardStyle(cfg.style))
	}
	if cfg.width > 0 {
		gopts = append(gopts, glamour.WithWordWrap(cfg.width))
	}

	r, err := glamour.NewTermRenderer(gopts...)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Plain renders markdown verbatim with a trailing newline.
func Plain(markdown string) (string, error) {
	return strings.TrimRight(markdown, "\n") + "\n", nil
}
