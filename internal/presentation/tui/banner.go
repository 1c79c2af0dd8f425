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
	{`  ____             _   ____  _ _       _   `, "#22d3ee"},
	{` | __ )  ___  __ _| |_|  _ \(_) | ___ | |_ `, "#38bdf8"},
	{` |  _ \ / _ \/ _' | __| |_) | | |/ _ \| __|`, "#818cf8"},
	{` | |_) |  __/ (_| | |_|  __/| | | (_) | |_ `, "#c084fc"},
	{` |____/ \___|\__,_|\__|_|   |_|_|\___/ \__|`, "#f472b6"},
}

// PrintBanner writes the BeatPilot banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  version "+version).Faint())
	fmt.Fprintln(w)
}

// StageLabel colors a repair stage name: green when the model output parsed
// cleanly, yellow when it needed repair, red for the fallback.
func StageLabel(w io.Writer, stage string) string {
	out := termenv.NewOutput(w)
	color := "#facc15"
	switch stage {
	case "normalized":
		color = "#4ade80"
	case "fallback":
		color = "#f87171"
	}
	return out.String(stage).Foreground(out.Color(color)).Bold().String()
}
