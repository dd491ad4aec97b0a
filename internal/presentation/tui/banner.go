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
	{` _                        _____      _   _     `, "#818cf8"},
	{`| | ___  __ _ _ __ _ __  |  __ \__ _| |_| |__  `, "#a78bfa"},
	{`| |/ _ \/ _' | '__| '_ \ | |__) / _' | __| '_ \ `, "#c084fc"},
	{`| |  __/ (_| | |  | | | ||  ___/ (_| | |_| | | |`, "#e879f9"},
	{`|_|\___|\__,_|_|  |_| |_||_|    \__,_|\__|_| |_|`, "#f472b6"},
}

// PrintBanner writes the learnpath banner, coloured when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
