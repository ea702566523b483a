package grabber

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasttemplate"
)

// Timestamp formats t as YYYYMMDD_HHMMSS_fffff (five fractional digits).
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405") + fmt.Sprintf("_%05d", t.Nanosecond()/10000)
}

// AutoName expands a file name template. Known tags: timestamp, ext, cmd.
// Unknown tags expand to nothing.
func AutoName(tmpl string, now time.Time, ext, command string) string {
	return fasttemplate.ExecuteFuncString(tmpl, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		switch strings.TrimSpace(tag) {
		case "timestamp":
			return w.Write([]byte(Timestamp(now)))
		case "ext":
			return w.Write([]byte(ext))
		case "cmd":
			return w.Write([]byte(command))
		default:
			return 0, nil
		}
	})
}

// SavePayload writes data to path through a temp file in the same
// directory and returns the absolute path written.
func SavePayload(path string, data []byte) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(abs), uuid.New().String()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename to %s: %w", abs, err)
	}
	return abs, nil
}
