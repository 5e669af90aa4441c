// Package turn implements the turn-processing pipeline: a single user turn in
// a therapy conversation (spoken audio, typed text, or a face photo) goes in,
// a structured result with a therapeutic reply comes out. The orchestrator
// detects the active modality, runs the matching adapter sequence, and owns
// cleanup of every temporary artifact it creates.
package turn

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AudioInput is an uploaded audio file with its client-declared name.
type AudioInput struct {
	Data     []byte
	Filename string
}

// TextInput is a typed chat message with an optional inline face image. The
// image is base64 encoded and may carry a data-URI prefix.
type TextInput struct {
	Message   string
	FaceImage string
}

// ImageInput is a standalone face photo upload.
type ImageInput struct {
	Data     []byte
	Filename string
}

// Request is the decoded turn request. Exactly one input shape is treated as
// active; [Request.Modality] picks it.
type Request struct {
	Audio *AudioInput
	Text  *TextInput
	Image *ImageInput
}

// Modality identifies the active input shape of a [Request].
type Modality string

const (
	ModalityAudio Modality = "audio"
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityNone  Modality = "none"
)

// Modality returns the active input shape. Detection order is audio, then
// text, then image; a named audio upload wins even if other fields are set.
func (r Request) Modality() Modality {
	switch {
	case r.Audio != nil && r.Audio.Filename != "":
		return ModalityAudio
	case r.Text != nil:
		return ModalityText
	case r.Image != nil && r.Image.Filename != "":
		return ModalityImage
	default:
		return ModalityNone
	}
}

// decodeFaceImage decodes an optionally data-URI-prefixed base64 image. When
// the value contains a comma, everything up to the first comma is treated as
// the URI header and discarded.
func decodeFaceImage(s string) ([]byte, error) {
	if _, b64, found := strings.Cut(s, ","); found {
		s = b64
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode face image: %w", err)
	}
	return data, nil
}
