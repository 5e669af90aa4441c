package turn

// Sentiment is the sentiment annotation carried in a [Result].
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`

	// UsedFallback marks a lexical approximation rather than a model verdict.
	UsedFallback bool `json:"usedFallback,omitempty"`
}

// FacialEmotion is the facial-emotion annotation carried in a [Result]. The
// UNKNOWN label with score 0 is an explicit "no usable face signal" value,
// distinct from the field being absent.
type FacialEmotion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// Result is the single externally observable output of one turn. Every field
// is optional; which ones are populated depends on the active modality, and
// fields the active path did not produce are absent rather than zeroed.
type Result struct {
	Transcript string         `json:"transcript,omitempty"`
	Sentiment  *Sentiment     `json:"sentiment,omitempty"`
	Response   string         `json:"response,omitempty"`
	// AudioResponse is a relative download path of the form
	// "/download/<uuid>.mp3" referring to the synthesized reply artifact.
	AudioResponse string         `json:"audio_response,omitempty"`
	Duration      *float64       `json:"duration,omitempty"`
	FileSizeMB    *float64       `json:"file_size_mb,omitempty"`
	Filename      string         `json:"filename,omitempty"`
	FacialEmotion *FacialEmotion `json:"facial_emotion,omitempty"`
}
