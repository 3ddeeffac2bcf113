// Package rclone uploads finished outputs to a remote with the rclone CLI.
package rclone

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmagar/hlsgrab/internal/helpers"
	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/ui"
)

const defaultBinary = "rclone"

// exitDirNotFound is rclone's exit status for a missing source or destination.
const exitDirNotFound = 3

var (
	statsLine    = regexp.MustCompile(`(?i)\btransferred:\s*(.+)$`)
	statsAmounts = regexp.MustCompile(`^\s*([^,]+?)\s*/\s*([^,]+?)(?:\s*,|$)`)
	statsPercent = regexp.MustCompile(`(\d{1,3})\s*%`)
	statsSpeed   = regexp.MustCompile(`(?:^|,)\s*@?\s*([^,]*?/s)\s*(?:,|$)`)
)

// CheckRcloneAvailable runs "rclone version" and returns its first line.
func CheckRcloneAvailable(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, binaryOrDefault(binary), "version").Output()
	if err != nil {
		return "", fmt.Errorf("rclone is not installed or not available in PATH: %w\n"+
			"Install it from https://rclone.org/downloads/ or set rcloneEnabled to false", err)
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}

// copyArgs returns the copyto arguments for one finished file and the remote
// location it lands at. remoteDir is a full rclone location such as "gdrive:courses/Go".
func copyArgs(localPath, remoteDir string, transfers int) ([]string, string) {
	dest := RemoteFilePath(remoteDir, filepath.Base(localPath))
	return []string{
		"copyto", localPath, dest,
		"--transfers=" + strconv.Itoa(transfers),
		"--progress", "--stats=1s", "--stats-one-line",
	}, dest
}

// checkArgs compares the local file against its uploaded copy.
func checkArgs(localPath, dest string) []string {
	return []string{
		"check", "--one-way",
		"--include", filepath.Base(localPath),
		filepath.Dir(localPath), remoteParent(dest),
	}
}

// remoteParent is path.Dir that keeps the "remote:" prefix intact.
func remoteParent(location string) string {
	remote, p, found := strings.Cut(location, ":")
	if !found {
		return path.Dir(location)
	}
	dir := path.Dir(p)
	if dir == "." {
		dir = ""
	}
	return remote + ":" + dir
}

// ParseStatsLine reads one line of rclone --stats-one-line output.
// ok is false for lines that carry no transfer stats.
func ParseStatsLine(line string) (p model.UploadProgress, ok bool) {
	line = strings.TrimSpace(ui.StripAnsiCodes(line))
	m := statsLine.FindStringSubmatch(line)
	if m == nil {
		return p, false
	}
	stats := strings.TrimSpace(m[1])
	amounts := statsAmounts.FindStringSubmatch(stats)
	if amounts == nil {
		return p, false
	}
	p.Uploaded = strings.Join(strings.Fields(amounts[1]), " ")
	p.Total = strings.Join(strings.Fields(amounts[2]), " ")
	if p.Uploaded == "" || p.Total == "" {
		return p, false
	}

	p.Percent = -1
	if pm := statsPercent.FindStringSubmatch(stats); pm != nil {
		if n, err := strconv.Atoi(pm[1]); err == nil {
			p.Percent = n
		}
	}
	if p.Percent < 0 {
		switch n, computed := percentOf(p.Uploaded, p.Total); {
		case computed:
			p.Percent = n
		case strings.EqualFold(p.Uploaded, p.Total):
			p.Percent = 100
		default:
			p.Percent = 0
		}
	}

	p.Speed = "0 B"
	if sm := statsSpeed.FindStringSubmatch(stats); sm != nil {
		if s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sm[1]), "@")); s != "" {
			p.Speed = s
		}
	}
	return p, true
}

// percentOf divides two human-readable sizes ("5 MiB", "10MiB").
func percentOf(uploaded, total string) (int, bool) {
	up, errUp := humanize.ParseBytes(strings.ReplaceAll(uploaded, " ", ""))
	all, errAll := humanize.ParseBytes(strings.ReplaceAll(total, " ", ""))
	if errUp != nil || errAll != nil || all == 0 {
		return 0, false
	}
	return min(int(float64(up)/float64(all)*100), 100), true
}

// runWithStats runs cmd with stdout and stderr merged into one stream, reporting
// stats lines to onProgress. Other output is attached to the error on failure.
func runWithStats(cmd *exec.Cmd, onProgress func(model.UploadProgress)) error {
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return err
	}
	if onProgress != nil {
		onProgress(model.UploadProgress{Speed: "0 B", Uploaded: "0", Total: "..."})
	}

	diagnostics := make(chan string, 1)
	go func() {
		var out strings.Builder
		sc := bufio.NewScanner(pr)
		sc.Split(scanLinesOrCR)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			if p, ok := ParseStatsLine(line); ok {
				if onProgress != nil {
					onProgress(p)
				}
				continue
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
		if err := sc.Err(); err != nil {
			out.WriteString(err.Error())
			out.WriteByte('\n')
		}
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
		diagnostics <- strings.TrimSpace(out.String())
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	diag := <-diagnostics
	if waitErr != nil && diag != "" {
		return fmt.Errorf("%w\n%s", waitErr, diag)
	}
	return waitErr
}

// rclone redraws its one-line stats with \r.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimSpace(data[:i]), nil
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}

func binaryOrDefault(binary string) string {
	if strings.TrimSpace(binary) == "" {
		return defaultBinary
	}
	return binary
}

func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// Upload sends one merged file to the configured remote with the default adapter.
func Upload(ctx context.Context, cfg *model.Config, localPath, course string, hooks model.StorageHooks) error {
	return NewStorageAdapter().Upload(ctx, cfg, model.UploadRequest{
		LocalPath: localPath,
		RemoteDir: helpers.GetRcloneRemoteDir(cfg, course),
	}, hooks)
}
