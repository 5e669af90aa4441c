// Package validate gates uploaded audio before any expensive processing runs.
// It checks the declared extension, the byte size and the probed duration in
// that order and materialises accepted uploads as uniquely named temp files.
package validate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reason identifies why an upload was rejected.
type Reason string

const (
	ReasonBadExtension Reason = "bad_extension"
	ReasonTooLarge     Reason = "too_large"
	ReasonTooLong      Reason = "too_long"
)

// Rejection is the typed validation failure. It carries the measured value
// that tripped the check so callers can surface it.
type Rejection struct {
	Reason    Reason
	Extension string        // set for ReasonBadExtension
	Size      int64         // set for ReasonTooLarge
	Duration  time.Duration // set for ReasonTooLong
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonBadExtension:
		return fmt.Sprintf("validate: extension %q not allowed", r.Extension)
	case ReasonTooLarge:
		return fmt.Sprintf("validate: file is %d bytes, over the limit", r.Size)
	case ReasonTooLong:
		return fmt.Sprintf("validate: audio is %s long, over the limit", r.Duration)
	default:
		return "validate: rejected"
	}
}

// Limits are the configured validation bounds.
type Limits struct {
	// AllowedExtensions lists acceptable extensions without the leading dot,
	// compared case-insensitively.
	AllowedExtensions []string
	// MaxBytes is the maximum upload size.
	MaxBytes int64
	// MaxDuration is the maximum audio length. Only enforced when
	// EnforceDuration is set; the probed duration is reported either way.
	MaxDuration     time.Duration
	EnforceDuration bool
}

// Upload is the scoped handle to a materialised, validated upload. The owner
// must call Remove exactly when done with the file; Remove is idempotent and
// safe to defer on every exit path.
type Upload struct {
	// Path is the on-disk location of the materialised file.
	Path string
	// Filename is the sanitised client-declared name, for echoing back.
	Filename string
	// Size is the upload size in bytes.
	Size int64
	// Duration is the probed audio length. Valid only when HasDuration is
	// true; probing is best-effort and may fail silently.
	Duration    time.Duration
	HasDuration bool

	removeOnce sync.Once
	removeErr  error
}

// Remove deletes the materialised file. Subsequent calls are no-ops returning
// the first call's result.
func (u *Upload) Remove() error {
	u.removeOnce.Do(func() {
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			u.removeErr = fmt.Errorf("validate: remove %q: %w", u.Path, err)
		}
	})
	return u.removeErr
}

// Validator applies [Limits] to raw uploads.
type Validator struct {
	limits  Limits
	tempDir string
}

// New creates a Validator that materialises uploads under tempDir. An empty
// tempDir falls back to the system temp directory.
func New(limits Limits, tempDir string) *Validator {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Validator{limits: limits, tempDir: tempDir}
}

// Validate checks data against the configured limits. On success it returns
// an [Upload] the caller owns; on rejection it returns a *[Rejection]. The
// duration check runs after the file is materialised and a TooLong rejection
// removes the file before returning. A failed duration probe skips the check
// rather than failing the upload.
func (v *Validator) Validate(data []byte, filename string) (*Upload, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !v.extensionAllowed(ext) {
		return nil, &Rejection{Reason: ReasonBadExtension, Extension: ext}
	}

	size := int64(len(data))
	if v.limits.MaxBytes > 0 && size > v.limits.MaxBytes {
		return nil, &Rejection{Reason: ReasonTooLarge, Size: size}
	}

	path := filepath.Join(v.tempDir, uuid.NewString()+"."+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("validate: materialize upload: %w", err)
	}
	up := &Upload{
		Path:     path,
		Filename: SecureFilename(filename),
		Size:     size,
	}

	if dur, ok := probeDuration(path); ok {
		up.Duration = dur
		up.HasDuration = true
		if v.limits.EnforceDuration && v.limits.MaxDuration > 0 && dur > v.limits.MaxDuration {
			if err := up.Remove(); err != nil {
				slog.Warn("failed to remove rejected upload", "path", path, "error", err)
			}
			return nil, &Rejection{Reason: ReasonTooLong, Duration: dur}
		}
	}
	return up, nil
}

func (v *Validator) extensionAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range v.limits.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// SecureFilename strips path separators and anything outside a conservative
// character set from a client-supplied filename, keeping only the base name.
func SecureFilename(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}
