package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/hlsgrab/internal/model"
)

const barWidth = 30

// renderBar draws a fixed-width bar for percentage.
func renderBar(percentage int, fillColor string) string {
	percentage = min(max(percentage, 0), 100)
	filled := (percentage * barWidth) / 100
	return fmt.Sprintf("%s[%s%s%s%s]%s",
		ColorCyan, fillColor, strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), ColorCyan, ColorReset)
}

// PrintSegmentProgress redraws the segment line of the current item.
// Off a terminal only every tenth segment and the last one are printed.
func PrintSegmentProgress(done, total int, bytes int64) {
	if total <= 0 {
		return
	}
	percentage := done * 100 / total
	line := fmt.Sprintf("  %s %s%3d%%%s  %d/%d segments, %s",
		renderBar(percentage, ColorGreen),
		ColorBold, percentage, ColorReset,
		done, total, humanize.IBytes(uint64(bytes)))

	if !IsTerminal() {
		if done == total || done%10 == 0 {
			fmt.Println(StripAnsiCodes(line))
		}
		return
	}
	if pad := GetTermWidth() - VisibleLength(line) - 1; pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	progressActive.Store(true)
	fmt.Printf("\r%s", line)
}

// PrintUploadProgress redraws the rclone upload line.
func PrintUploadProgress(percentage int, speed, uploaded, total string) {
	line := fmt.Sprintf("  %s %s%3d%%%s @ %s, %s/%s",
		renderBar(percentage, ColorPurple), ColorBold, percentage, ColorReset, speed, uploaded, total)
	if !IsTerminal() {
		if percentage >= 100 {
			fmt.Println(StripAnsiCodes(line))
		}
		return
	}
	progressActive.Store(true)
	fmt.Printf("\r%s", line)
}

// EndProgressLine moves past an in-place progress line, if one is showing.
func EndProgressLine() {
	if progressActive.CompareAndSwap(true, false) {
		fmt.Println()
	}
}

// PrintItemHeader announces the start of an item.
func PrintItemHeader(index, total int, item model.CatalogItem) {
	EndProgressLine()
	fmt.Printf("\n%s%s%s %s[%d/%d]%s #%d %s%s%s\n",
		ColorCyan, SymbolFilm, ColorReset,
		ColorBold, index, total, ColorReset,
		item.Ordinal, ColorBold, item.Title, ColorReset)
}

// PrintItemResult prints the one-line outcome of a finished item.
func PrintItemResult(st *model.ItemState) {
	st.Mu.Lock()
	phase, skipped, err, out := st.Phase, st.Skipped, st.Err, st.OutPath
	segments, bytes := st.Segments, st.Bytes
	st.Mu.Unlock()

	switch {
	case skipped:
		PrintSkip(fmt.Sprintf("#%d already downloaded, skipping", st.Item.Ordinal))
	case phase == model.PhaseDone:
		PrintSuccess(fmt.Sprintf("#%d %s (%d segments, %s, %s)",
			st.Item.Ordinal, out, segments, humanize.IBytes(uint64(bytes)), st.Duration().Round(time.Second)))
	case phase == model.PhaseFailed:
		PrintError(err.Error())
	}
}

// PrintCompletionSummary renders the end-of-run table and totals.
func PrintCompletionSummary(batch model.BatchProgressState, states []*model.ItemState) {
	EndProgressLine()
	PrintHeader("Run Summary")

	table := NewTable([]TableColumn{
		{Header: "#", Width: 5, Align: AlignRight},
		{Header: "Title", Width: 40},
		{Header: "Result", Width: 12, Align: AlignCenter},
		{Header: "Size", Width: 10, Align: AlignRight},
	})
	for _, st := range states {
		st.Mu.Lock()
		result, color := describeOutcome(st)
		size := "-"
		if st.Bytes > 0 {
			size = humanize.IBytes(uint64(st.Bytes))
		}
		table.AddRow(fmt.Sprintf("%d", st.Item.Ordinal), st.Item.Title, color+result+ColorReset, size)
		st.Mu.Unlock()
	}
	table.Print()
	fmt.Println()

	PrintKeyValue("Downloaded", fmt.Sprintf("%d", batch.Complete), ColorGreen)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", batch.Skipped), ColorBlue)
	PrintKeyValue("Failed", fmt.Sprintf("%d", batch.Failed), failedColor(batch.Failed))
	if !batch.StartTime.IsZero() {
		PrintKeyValue("Elapsed", time.Since(batch.StartTime).Round(time.Second).String(), ColorReset)
	}
	if w := RunWarningCount.Load(); w > 0 {
		PrintKeyValue("Warnings", fmt.Sprintf("%d", w), ColorYellow)
	}
}

// describeOutcome expects st.Mu to be held.
func describeOutcome(st *model.ItemState) (string, string) {
	switch {
	case st.Skipped:
		return "skipped", ColorBlue
	case st.Phase == model.PhaseDone:
		return "done", ColorGreen
	case st.Phase == model.PhaseFailed:
		if ie, ok := st.Err.(*model.ItemError); ok {
			return "failed: " + ie.Phase.String(), ColorRed
		}
		return "failed", ColorRed
	default:
		return st.Phase.String(), ColorYellow
	}
}

func failedColor(n int) string {
	if n > 0 {
		return ColorRed
	}
	return ColorGreen
}
