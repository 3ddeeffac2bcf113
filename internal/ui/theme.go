package ui

import (
	"os"
	"strings"
)

// ANSI color codes - exported for use across packages.
var (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorPurple = "\033[95m"
	ColorCyan   = "\033[96m"
	ColorBold   = "\033[1m"
	ActiveTheme = "nordonedark"
)

// Unicode symbols
var (
	SymbolCheck    = "✓"
	SymbolCross    = "✗"
	SymbolSkip     = "↷"
	SymbolUpload   = "⬆"
	SymbolDownload = "⬇"
	SymbolInfo     = "ℹ"
	SymbolWarning  = "⚠"
	SymbolFilm     = "🎬"
	SymbolSection  = "◆"
)

// palette holds red, green, yellow, blue, purple, cyan in that order.
type palette [6]string

type theme struct {
	truecolor palette
	color256  palette
	// basic is applied when neither truecolor nor 256 colours are detected.
	// Empty keeps the built-in ANSI defaults.
	basic palette
}

var themes = map[string]theme{
	"nordonedark": {
		truecolor: palette{
			"\033[1;38;2;224;108;117m", "\033[1;38;2;152;195;121m", "\033[1;38;2;229;192;123m",
			"\033[1;38;2;143;188;255m", "\033[1;38;2;180;142;255m", "\033[1;38;2;136;220;255m",
		},
		color256: palette{
			"\033[1;38;5;210m", "\033[1;38;5;114m", "\033[1;38;5;222m",
			"\033[1;38;5;111m", "\033[1;38;5;183m", "\033[1;38;5;159m",
		},
	},
	"vivid": {
		truecolor: palette{
			"\033[1;38;2;255;76;102m", "\033[1;38;2;80;250;123m", "\033[1;38;2;255;221;87m",
			"\033[1;38;2;110;196;255m", "\033[1;38;2;215;130;255m", "\033[1;38;2;0;245;255m",
		},
		color256: palette{
			"\033[1;38;5;203m", "\033[1;38;5;84m", "\033[1;38;5;227m",
			"\033[1;38;5;81m", "\033[1;38;5;177m", "\033[1;38;5;51m",
		},
		basic: palette{
			"\033[1;91m", "\033[1;92m", "\033[1;93m",
			"\033[1;94m", "\033[1;95m", "\033[1;96m",
		},
	},
}

func init() {
	InitColorPalette()
}

// InitColorPalette selects the color theme from HLSGRAB_THEME and NO_COLOR.
func InitColorPalette() {
	if os.Getenv("NO_COLOR") != "" {
		disableColor()
		return
	}
	if name := strings.ToLower(strings.TrimSpace(os.Getenv("HLSGRAB_THEME"))); name != "" {
		ActiveTheme = name
	}
	t, ok := themes[ActiveTheme]
	if !ok {
		t = themes["nordonedark"]
	}
	switch {
	case SupportsTruecolor():
		apply(t.truecolor)
	case Supports256Color():
		apply(t.color256)
	case t.basic[0] != "":
		apply(t.basic)
	}
}

func apply(p palette) {
	ColorRed, ColorGreen, ColorYellow = p[0], p[1], p[2]
	ColorBlue, ColorPurple, ColorCyan = p[3], p[4], p[5]
}

func disableColor() {
	apply(palette{})
	ColorReset, ColorBold = "", ""
}

// SupportsTruecolor checks if the terminal supports 24-bit color.
func SupportsTruecolor() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
	return strings.Contains(colorTerm, "truecolor") ||
		strings.Contains(colorTerm, "24bit") ||
		strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit")
}

// Supports256Color checks if the terminal supports 256 colors.
func Supports256Color() bool {
	return strings.Contains(strings.ToLower(os.Getenv("TERM")), "256color")
}
