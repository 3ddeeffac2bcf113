package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmagar/hlsgrab/internal/catalog"
	"github.com/jmagar/hlsgrab/internal/helpers"
	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/progress"
	"github.com/jmagar/hlsgrab/internal/rclone"
	"github.com/jmagar/hlsgrab/internal/ui"
)

// remoteChecker is the part of the storage provider --status needs.
type remoteChecker interface {
	PathExists(ctx context.Context, cfg *model.Config, remotePath string) (bool, error)
}

func printStatus(ctx context.Context, cfg *model.Config, cat *catalog.Catalog) int {
	var remote remoteChecker
	if cfg.RcloneEnabled {
		remote = rclone.NewStorageAdapter()
	}
	return renderStatus(ctx, cfg, cat, remote)
}

func renderStatus(ctx context.Context, cfg *model.Config, cat *catalog.Catalog, remote remoteChecker) int {
	tracker := progress.New(cfg.OutPath)
	prog, err := tracker.Load()
	if err != nil {
		ui.PrintWarning(err.Error())
	}

	ui.PrintHeader("Resume State")
	ui.PrintKeyValue("Output", cfg.OutPath, ui.ColorCyan)
	ui.PrintKeyValue("Progress file", tracker.Path(), ui.ColorCyan)
	ui.PrintKeyValue("Completed", fmt.Sprintf("%d/%d", len(prog.Completed), prog.Total), ui.ColorGreen)

	if cat == nil {
		if len(prog.Completed) > 0 {
			ui.PrintKeyValue("Done ordinals", joinOrdinals(prog.Completed), ui.ColorReset)
		}
		return exitOK
	}

	ui.PrintSection("Items")
	columns := []ui.TableColumn{
		{Header: "#", Width: 5, Align: ui.AlignRight},
		{Header: "Title", Width: 40},
		{Header: "State", Width: 10, Align: ui.AlignCenter},
		{Header: "Local", Width: 8, Align: ui.AlignCenter},
	}
	if remote != nil {
		columns = append(columns, ui.TableColumn{Header: "Remote", Width: 8, Align: ui.AlignCenter})
	}
	table := ui.NewTable(columns)
	remoteDir := helpers.GetRcloneRemoteDir(cfg, cat.Course)

	for _, item := range cat.Items {
		state := ui.ColorYellow + "remaining" + ui.ColorReset
		if prog.IsDone(item.Ordinal) {
			state = ui.ColorGreen + "done" + ui.ColorReset
		}
		name := helpers.ItemFileName(item, cfg.Container)
		local := "-"
		if ok, _ := helpers.FileExists(filepath.Join(cfg.OutPath, name)); ok {
			local = ui.SymbolCheck
		}
		row := []string{fmt.Sprintf("%d", item.Ordinal), item.Title, state, local}
		if remote != nil {
			mark := "-"
			exists, err := remote.PathExists(ctx, cfg, rclone.RemoteFilePath(remoteDir, name))
			switch {
			case err != nil:
				mark = "?"
			case exists:
				mark = ui.SymbolCheck
			}
			row = append(row, mark)
		}
		table.AddRow(row...)
	}
	table.Print()
	fmt.Println()

	remaining := catalog.Remaining(cat.Items, prog)
	if len(remaining) == 0 {
		ui.PrintSuccess("All catalog items are downloaded")
		return exitOK
	}
	ordinals := make([]int, len(remaining))
	for i, item := range remaining {
		ordinals[i] = item.Ordinal
	}
	ui.PrintKeyValue("Remaining", joinOrdinals(ordinals), ui.ColorYellow)
	return exitOK
}

func joinOrdinals(ordinals []int) string {
	parts := make([]string, len(ordinals))
	for i, o := range ordinals {
		parts[i] = fmt.Sprintf("%d", o)
	}
	return strings.Join(parts, ", ")
}
