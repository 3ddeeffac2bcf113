package ui

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// Alignment of a table cell.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// frame is one set of box-drawing runes.
type frame struct {
	h, v       string
	tl, tm, tr string
	ml, mm, mr string
	bl, bm, br string
}

var (
	single = frame{h: "─", v: "│", tl: "┌", tm: "┬", tr: "┐", ml: "├", mm: "┼", mr: "┤", bl: "└", bm: "┴", br: "┘"}
	double = frame{h: "═", v: "║", tl: "╔", tr: "╗", bl: "╚", br: "╝"}
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const (
	defaultTermWidth = 80
	termWidthTTL     = 500 * time.Millisecond
)

var termWidth struct {
	sync.Mutex
	value int
	at    time.Time
}

// GetTermWidth returns the stdout terminal width, re-measured at most twice a
// second. Non-terminals report 80.
func GetTermWidth() int {
	termWidth.Lock()
	defer termWidth.Unlock()
	if termWidth.value > 0 && time.Since(termWidth.at) < termWidthTTL {
		return termWidth.value
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		w = defaultTermWidth
	}
	termWidth.value, termWidth.at = w, time.Now()
	return w
}

// StripAnsiCodes removes colour escape sequences.
func StripAnsiCodes(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// VisibleLength counts the runes a string occupies on screen.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// Truncate shortens s to n visible runes, ending in "..." when there is room.
// A coloured string keeps its leading colour and is reset at the end.
func Truncate(s string, n int) string {
	if VisibleLength(s) <= n {
		return s
	}
	runes := []rune(StripAnsiCodes(s))
	if n <= 3 {
		return string(runes[:max(n, 0)])
	}
	out := string(runes[:n-3]) + "..."
	if lead := ansiPattern.FindString(s); lead != "" && strings.HasPrefix(s, lead) {
		return lead + out + ColorReset
	}
	return out
}

// align pads s to width visible runes.
func align(s string, width int, a Alignment) string {
	gap := width - VisibleLength(s)
	if gap <= 0 {
		return s
	}
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

// PrintHeader prints title centred in a double-lined box across the terminal.
func PrintHeader(title string) {
	inner := GetTermWidth() - 2
	title = Truncate(title, inner-4)
	rule := strings.Repeat(double.h, inner)
	fmt.Printf("\n%s%s%s%s%s\n", ColorCyan, double.tl, rule, double.tr, ColorReset)
	fmt.Printf("%s%s%s%s%s%s%s%s\n", ColorCyan, double.v, ColorReset,
		ColorBold, align(title, inner, AlignCenter), ColorReset,
		ColorCyan+double.v, ColorReset)
	fmt.Printf("%s%s%s%s%s\n\n", ColorCyan, double.bl, rule, double.br, ColorReset)
}

// PrintSection prints an underlined section title.
func PrintSection(title string) {
	fmt.Printf("\n%s%s %s%s\n", ColorBold, SymbolSection, title, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorCyan, strings.Repeat(single.h, VisibleLength(title)+2), ColorReset)
}

// TableColumn describes one table column. Width is the preferred width; columns
// shrink proportionally when the terminal is narrower.
type TableColumn struct {
	Header string
	Width  int
	Align  Alignment
}

// Table is a boxed, column-aligned table.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row, padding or cutting it to the column count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Print renders the table to stdout.
func (t *Table) Print() {
	fmt.Print(t.render(GetTermWidth()))
}

func (t *Table) render(termWidth int) string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := t.widths(termWidth)
	var b strings.Builder

	rule := func(l, m, r string) {
		segs := make([]string, len(widths))
		for i, w := range widths {
			segs[i] = strings.Repeat(single.h, w+2)
		}
		b.WriteString(ColorCyan + l + strings.Join(segs, m) + r + ColorReset + "\n")
	}
	row := func(cells []string, header bool) {
		bar := ColorCyan + single.v + ColorReset
		b.WriteString(bar)
		for i, w := range widths {
			cell := Truncate(cells[i], w)
			if header {
				cell = ColorBold + align(cell, w, AlignCenter) + ColorReset
			} else {
				cell = align(cell, w, t.Columns[i].Align)
			}
			b.WriteString(" " + cell + " " + bar)
		}
		b.WriteString("\n")
	}

	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	rule(single.tl, single.tm, single.tr)
	row(headers, true)
	rule(single.ml, single.mm, single.mr)
	for _, r := range t.Rows {
		row(r, false)
	}
	rule(single.bl, single.bm, single.br)
	return b.String()
}

// widths scales column widths down to fit termWidth, counting one border and
// two spaces per column plus the closing border.
func (t *Table) widths(termWidth int) []int {
	widths := make([]int, len(t.Columns))
	want := 0
	for i, c := range t.Columns {
		widths[i] = c.Width
		want += c.Width
	}
	room := termWidth - 3*len(widths) - 1
	if room > 0 && want > room {
		for i := range widths {
			widths[i] = max(widths[i]*room/want, 1)
		}
	}
	return widths
}

// PrintKeyValue prints an aligned "key: value" line.
func PrintKeyValue(key, value, valueColor string) {
	value = Truncate(value, GetTermWidth()-30)
	fmt.Printf("  %s%-20s%s %s%s%s\n", ColorCyan, key+":", ColorReset, valueColor, value, ColorReset)
}
