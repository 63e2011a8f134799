package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xeptore/flaw/v8"
)

// YTDLP downloads audio through the yt-dlp command line tool.
type YTDLP struct {
	binPath string
	logger  zerolog.Logger
}

func NewYTDLP(logger zerolog.Logger, binPath string) *YTDLP {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YTDLP{binPath: binPath, logger: logger}
}

func (y *YTDLP) ResolveAndFetch(ctx context.Context, searchText string, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); nil != err {
		return "", flaw.From(fmt.Errorf("audio: failed to create destination directory: %v", err))
	}

	// yt-dlp appends the extension itself.
	template := strings.TrimSuffix(dest, filepath.Ext(dest)) + ".%(ext)s"
	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--extract-audio",
		"--audio-format", "mp3",
		"--output", template,
		"ytsearch1:" + searchText,
	}

	cmd := exec.CommandContext(ctx, y.binPath, args...)
	out, err := cmd.CombinedOutput()
	if nil != err {
		if ctxErr := ctx.Err(); nil != ctxErr {
			return "", ctxErr
		}
		if err := classifyOutput(string(out)); nil != err {
			return "", err
		}
		y.logger.
			Debug().
			Str("search_text", searchText).
			Str("output", string(out)).
			Msg("yt-dlp exited with failure")
		return "", flaw.From(fmt.Errorf("audio: yt-dlp failed: %v", err)).Append(flaw.P{"output": string(out)})
	}

	if _, err := os.Stat(dest); nil != err {
		if !os.IsNotExist(err) {
			return "", flaw.From(fmt.Errorf("audio: failed to stat downloaded file: %v", err))
		}
		found := findWithAnyExt(dest)
		if found == "" {
			return "", flaw.From(fmt.Errorf("audio: downloaded file not found at %q", dest))
		}
		return found, nil
	}

	return dest, nil
}

// classifyOutput maps known yt-dlp failure messages to sentinel errors.
func classifyOutput(out string) error {
	switch {
	case strings.Contains(out, "HTTP Error 429"), strings.Contains(out, "rate limit"), strings.Contains(out, "429"):
		return ErrRateLimited
	case strings.Contains(out, "No video formats"),
		strings.Contains(out, "Video unavailable"),
		strings.Contains(out, "This video is unavailable"),
		strings.Contains(out, "did not get any data blocks"):
		return ErrUnavailable
	default:
		return nil
	}
}

func findWithAnyExt(dest string) string {
	base := strings.TrimSuffix(dest, filepath.Ext(dest))
	for _, ext := range []string{".mp3", ".m4a", ".opus", ".webm"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); nil == err {
			return candidate
		}
	}
	return ""
}
