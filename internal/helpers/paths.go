package helpers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/jmagar/hlsgrab/internal/model"
)

// unsafeNameChars are rejected in file names on at least one supported OS.
var unsafeNameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// slugMaxRunes keeps output names well under common filesystem limits.
const slugMaxRunes = 80

// Sanitise replaces characters that are invalid in file names with "_".
func Sanitise(name string) string {
	return strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, "_"))
}

// Slug turns a title into a lower-case, dash-separated filename stem.
// Non-ASCII letters are kept; an empty result becomes "item".
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(Sanitise(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	runes := []rune(slug)
	if len(runes) > slugMaxRunes {
		slug = strings.TrimRight(string(runes[:slugMaxRunes]), "-")
	}
	if slug == "" {
		return "item"
	}
	return slug
}

// ItemFileName returns the output file name for a catalog item.
func ItemFileName(item model.CatalogItem, container string) string {
	return fmt.Sprintf("%d-%s.%s", item.Ordinal, Slug(item.Title), container)
}

// MakeDirs creates path and any missing parents.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0o755)
}

// FileExists reports whether a regular file (not a directory) exists at path.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// ValidatePath rejects paths that would break an external command's argv.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path %q contains control characters", path)
	}
	return nil
}

// GetRcloneRemoteDir returns the remote directory uploads go to, e.g. "gdrive:courses/Go".
func GetRcloneRemoteDir(cfg *model.Config, course string) string {
	if cfg == nil {
		return ""
	}
	base := strings.Trim(strings.TrimSpace(cfg.RclonePath), "/")
	if course = strings.TrimSpace(course); course != "" {
		base = strings.TrimPrefix(base+"/"+Sanitise(course), "/")
	}
	return strings.TrimSuffix(cfg.RcloneRemote, ":") + ":" + base
}

// DirSize sums the sizes of the regular files under dir. Unreadable entries
// are skipped.
func DirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
