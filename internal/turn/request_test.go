package turn

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestRequest_Modality(t *testing.T) {
	audio := &AudioInput{Data: []byte("a"), Filename: "v.wav"}
	text := &TextInput{Message: "hi"}
	img := &ImageInput{Data: []byte("i"), Filename: "f.png"}

	tests := []struct {
		name string
		req  Request
		want Modality
	}{
		{"audio only", Request{Audio: audio}, ModalityAudio},
		{"text only", Request{Text: text}, ModalityText},
		{"image only", Request{Image: img}, ModalityImage},
		{"audio wins over text", Request{Audio: audio, Text: text}, ModalityAudio},
		{"text wins over image", Request{Text: text, Image: img}, ModalityText},
		{"unnamed audio falls through", Request{Audio: &AudioInput{Data: []byte("a")}, Text: text}, ModalityText},
		{"unnamed image is nothing", Request{Image: &ImageInput{Data: []byte("i")}}, ModalityNone},
		{"empty", Request{}, ModalityNone},
	}
	for _, tt := range tests {
		if got := tt.req.Modality(); got != tt.want {
			t.Errorf("%s: Modality() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDecodeFaceImage(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	b64 := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{b64, "data:image/png;base64," + b64} {
		got, err := decodeFaceImage(in)
		if err != nil {
			t.Fatalf("decodeFaceImage(%q): %v", in, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("decodeFaceImage(%q) = %v, want %v", in, got, raw)
		}
	}
}

func TestDecodeFaceImage_Invalid(t *testing.T) {
	if _, err := decodeFaceImage("not base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64, got nil")
	}
}
