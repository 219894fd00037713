package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                              _       _   `, "#34d399"},
	{` __      ____ _ _   _ _ __   ___ (_)_ __ | |_ `, "#2dd4bf"},
	{` \ \ /\ / / _' | | | | '_ \ / _ \| | '_ \| __|`, "#22d3ee"},
	{`  \ V  V / (_| | |_| | |_) | (_) | | | | | |_ `, "#38bdf8"},
	{`   \_/\_/ \__,_|\__, | .__/ \___/|_|_| |_|\__|`, "#60a5fa"},
	{`                |___/|_|                      `, "#818cf8"},
}

// PrintBanner writes the ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
