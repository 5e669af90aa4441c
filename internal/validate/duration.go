package validate

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// probeDuration measures the audio length of the file at path. WAV files are
// measured from the container header; MP3 is measured by decoded length. The
// probe is best-effort: any failure returns ok=false and the caller skips the
// duration check.
func probeDuration(path string) (time.Duration, bool) {
	f, err := os.Open(path)
	if err != nil {
		slog.Debug("duration probe failed", "path", path, "error", err)
		return 0, false
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return probeWAV(f)
	case ".mp3", ".mpeg":
		return probeMP3(f)
	default:
		return 0, false
	}
}

func probeWAV(r io.ReadSeeker) (time.Duration, bool) {
	dec := wav.NewDecoder(r)
	dur, err := dec.Duration()
	if err != nil || dur <= 0 {
		slog.Debug("wav duration probe failed", "error", err)
		return 0, false
	}
	return dur, true
}

func probeMP3(r io.Reader) (time.Duration, bool) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		slog.Debug("mp3 duration probe failed", "error", err)
		return 0, false
	}
	n := dec.Length()
	rate := dec.SampleRate()
	if n <= 0 || rate <= 0 {
		return 0, false
	}
	// go-mp3 emits 16-bit stereo, 4 bytes per frame.
	secs := float64(n) / float64(4*rate)
	return time.Duration(secs * float64(time.Second)), true
}
