package turn

import (
	"net/http"
	"time"
)

// Kind classifies the failures that stop a turn. Facial-analysis and
// generation failures never appear here; they are downgraded into the result
// instead of propagating.
type Kind string

const (
	// KindInputRejected covers bad extension, oversize, and overlong uploads.
	KindInputRejected Kind = "input_rejected"

	// KindUnintelligible means the recognizer found no intelligible speech.
	KindUnintelligible Kind = "unintelligible"

	// KindTranscription covers recognizer infrastructure failures.
	KindTranscription Kind = "transcription_error"

	// KindSynthesis covers speech synthesis failures, fatal to an audio turn.
	KindSynthesis Kind = "synthesis_error"
)

// Error is a turn failure with a stable reason code and a human-readable
// message. When relevant it carries the measured offending value.
type Error struct {
	Kind    Kind
	Reason  string
	Message string

	// Size is the measured upload size in bytes, for oversize rejections.
	Size int64

	// Duration is the measured audio length, for overlong rejections.
	Duration time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

// CallerError reports whether the failure is the caller's fault
// (a 4xx-equivalent) rather than an infrastructure failure.
func (e *Error) CallerError() bool {
	switch e.Kind {
	case KindInputRejected, KindUnintelligible:
		return true
	}
	return false
}

// HTTPStatus maps the failure kind to the status a transport layer should
// respond with.
func (e *Error) HTTPStatus() int {
	if e.CallerError() {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
