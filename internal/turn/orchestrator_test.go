package turn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/solacevoice/solace/internal/artifact"
	"github.com/solacevoice/solace/internal/validate"
	"github.com/solacevoice/solace/pkg/provider/face"
	facemock "github.com/solacevoice/solace/pkg/provider/face/mock"
	llmmock "github.com/solacevoice/solace/pkg/provider/llm/mock"
	"github.com/solacevoice/solace/pkg/provider/sentiment"
	"github.com/solacevoice/solace/pkg/provider/sentiment/lexicon"
	"github.com/solacevoice/solace/pkg/provider/stt"
	sttmock "github.com/solacevoice/solace/pkg/provider/stt/mock"
	ttsmock "github.com/solacevoice/solace/pkg/provider/tts/mock"
)

// wavData builds a 16-bit mono PCM WAV blob of the given length.
func wavData(t *testing.T, sampleRate int, duration time.Duration) []byte {
	t.Helper()

	frames := int(float64(sampleRate) * duration.Seconds())
	dataLen := uint32(frames * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

// pngData builds a tiny valid PNG.
func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pipeline bundles an orchestrator with its mocks and directories so tests
// can assert on both the result and the side effects.
type pipeline struct {
	orc       *Orchestrator
	stt       *sttmock.Provider
	tts       *ttsmock.Provider
	face      *facemock.Provider
	llm       *llmmock.Provider
	store     *artifact.Store
	uploadDir string
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	limits := validate.Limits{
		AllowedExtensions: []string{"wav", "mp3", "mpeg"},
		MaxBytes:          10 << 20,
		MaxDuration:       30 * time.Second,
		EnforceDuration:   true,
	}
	uploadDir := t.TempDir()
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	p := &pipeline{
		stt:       &sttmock.Provider{Text: "i am so happy today"},
		tts:       &ttsmock.Provider{Audio: []byte("mp3 audio")},
		face:      &facemock.Provider{Judgment: face.Judgment{Label: "HAPPY", Score: 97.324}},
		llm:       &llmmock.Provider{Content: "model reply"},
		store:     store,
		uploadDir: uploadDir,
	}
	p.orc = New(Config{
		Validator: validate.New(limits, uploadDir),
		Limits:    limits,
		STT:       p.stt,
		Sentiment: lexicon.New(),
		Face:      p.face,
		Generator: &Generator{}, // no credential configured
		TTS:       p.tts,
		Store:     store,
	})
	return p
}

func (p *pipeline) uploadsLeft(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(p.uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func asTurnError(t *testing.T, err error) *Error {
	t.Helper()
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("got %v (%T), want *turn.Error", err, err)
	}
	return terr
}

func TestProcess_AudioHappyPath(t *testing.T) {
	p := newPipeline(t)

	data := wavData(t, 16000, 5*time.Second)
	res, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: data, Filename: "happy.wav"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.Transcript != "i am so happy today" {
		t.Errorf("Transcript = %q", res.Transcript)
	}
	if res.Sentiment == nil || res.Sentiment.Label != sentiment.LabelPositive {
		t.Errorf("Sentiment = %+v, want POSITIVE", res.Sentiment)
	}
	if res.Response != "That's wonderful to hear! Keep up the positive momentum." {
		t.Errorf("Response = %q", res.Response)
	}
	if !strings.HasPrefix(res.AudioResponse, "/download/") || !strings.HasSuffix(res.AudioResponse, ".mp3") {
		t.Errorf("AudioResponse = %q, want /download/<uuid>.mp3", res.AudioResponse)
	}
	if res.Duration == nil || *res.Duration < 4.9 || *res.Duration > 5.1 {
		t.Errorf("Duration = %v, want ~5s", res.Duration)
	}
	if res.FileSizeMB == nil || *res.FileSizeMB <= 0 {
		t.Errorf("FileSizeMB = %v, want > 0", res.FileSizeMB)
	}
	if res.Filename != "happy.wav" {
		t.Errorf("Filename = %q", res.Filename)
	}
	if res.FacialEmotion != nil {
		t.Errorf("FacialEmotion = %+v, want absent on the audio path", res.FacialEmotion)
	}

	// The synthesized reply is downloadable and the temp upload is gone.
	name := strings.TrimPrefix(res.AudioResponse, "/download/")
	if _, err := p.store.Open(name); err != nil {
		t.Errorf("stored artifact missing: %v", err)
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind", n)
	}
	if p.llm.CallCount() != 0 {
		t.Error("audio path must not call the generation provider")
	}
}

func TestProcess_AudioBadExtension(t *testing.T) {
	p := newPipeline(t)

	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: []byte("oggs"), Filename: "voice.ogg"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindInputRejected || terr.Reason != "bad_extension" {
		t.Fatalf("got %+v, want input_rejected/bad_extension", terr)
	}
	if !terr.CallerError() {
		t.Error("bad extension should be a caller error")
	}
	if p.stt.CallCount() != 0 {
		t.Error("rejected upload reached the recognizer")
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind", n)
	}
}

func TestProcess_AudioTooLarge(t *testing.T) {
	p := newPipeline(t)

	big := make([]byte, (10<<20)+1)
	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: big, Filename: "big.wav"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindInputRejected || terr.Reason != "too_large" {
		t.Fatalf("got %+v, want input_rejected/too_large", terr)
	}
	if terr.Size != int64(len(big)) {
		t.Errorf("Size = %d, want %d", terr.Size, len(big))
	}
	if p.stt.CallCount() != 0 {
		t.Error("oversize upload reached the recognizer")
	}
}

func TestProcess_AudioTooLong(t *testing.T) {
	p := newPipeline(t)

	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: wavData(t, 16000, 31*time.Second), Filename: "long.wav"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindInputRejected || terr.Reason != "too_long" {
		t.Fatalf("got %+v, want input_rejected/too_long", terr)
	}
	if terr.Duration < 30*time.Second {
		t.Errorf("Duration = %s, want the measured length", terr.Duration)
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind after TooLong", n)
	}
}

func TestProcess_AudioUnintelligible(t *testing.T) {
	p := newPipeline(t)
	p.stt.Err = stt.ErrNoSpeech

	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: wavData(t, 16000, time.Second), Filename: "mumble.wav"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindUnintelligible {
		t.Fatalf("Kind = %q, want unintelligible", terr.Kind)
	}
	if terr.Message != "Could not understand audio." {
		t.Errorf("Message = %q", terr.Message)
	}
	if !terr.CallerError() {
		t.Error("unintelligible should be a caller error")
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind", n)
	}
}

func TestProcess_AudioTranscriptionError(t *testing.T) {
	p := newPipeline(t)
	p.stt.Err = errors.New("model crashed")

	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: wavData(t, 16000, time.Second), Filename: "voice.wav"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindTranscription {
		t.Fatalf("Kind = %q, want transcription_error", terr.Kind)
	}
	if terr.CallerError() {
		t.Error("infrastructure failure classified as caller error")
	}
	if !strings.Contains(terr.Message, "model crashed") {
		t.Errorf("Message %q missing the failure detail", terr.Message)
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind", n)
	}
}

func TestProcess_AudioSynthesisFatal(t *testing.T) {
	p := newPipeline(t)
	p.tts.Err = errors.New("voice service down")

	_, err := p.orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: wavData(t, 16000, time.Second), Filename: "voice.wav"},
	})
	terr := asTurnError(t, err)
	if terr.Kind != KindSynthesis {
		t.Fatalf("Kind = %q, want synthesis_error", terr.Kind)
	}
	if n := p.uploadsLeft(t); n != 0 {
		t.Errorf("%d temp uploads left behind", n)
	}
}

func TestProcess_TextWithoutCredential(t *testing.T) {
	p := newPipeline(t)

	res, err := p.orc.Process(context.Background(), Request{
		Text: &TextInput{Message: "I feel hopeless"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Sentiment == nil || res.Sentiment.Label != sentiment.LabelNegative {
		t.Errorf("Sentiment = %+v, want NEGATIVE", res.Sentiment)
	}
	want := "Gemini API key is not set. Please set the GEMINI_API_KEY environment variable."
	if res.Response != want {
		t.Errorf("Response = %q, want the no-credential string", res.Response)
	}
	if res.FacialEmotion != nil {
		t.Errorf("FacialEmotion = %+v, want absent without an image", res.FacialEmotion)
	}
	if res.Transcript != "" || res.AudioResponse != "" {
		t.Error("text turn produced audio-path fields")
	}
}

func TestProcess_TextWithFaceImage(t *testing.T) {
	p := newPipeline(t)
	p.orc.generator = &Generator{Provider: p.llm}

	b64 := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData(t))
	res, err := p.orc.Process(context.Background(), Request{
		Text: &TextInput{Message: "hello there", FaceImage: b64},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.FacialEmotion == nil || res.FacialEmotion.Label != "HAPPY" {
		t.Fatalf("FacialEmotion = %+v, want HAPPY", res.FacialEmotion)
	}
	if res.FacialEmotion.Score != 97.32 {
		t.Errorf("Score = %v, want 97.32 after rounding", res.FacialEmotion.Score)
	}
	if res.Response != "model reply" {
		t.Errorf("Response = %q", res.Response)
	}
	prompt := p.llm.LastPrompt()
	if !strings.Contains(prompt, "facial emotion appears to be happy (score: 97.32)") {
		t.Errorf("prompt %q missing the facial-emotion clause", prompt)
	}
}

func TestProcess_TextBadFaceImageDegrades(t *testing.T) {
	p := newPipeline(t)

	res, err := p.orc.Process(context.Background(), Request{
		Text: &TextInput{Message: "hello", FaceImage: "!!! not base64 !!!"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	fe := res.FacialEmotion
	if fe == nil || fe.Label != face.LabelUnknown || fe.Score != 0 || fe.Error == "" {
		t.Fatalf("FacialEmotion = %+v, want the UNKNOWN sentinel with detail", fe)
	}
	if p.face.CallCount() != 0 {
		t.Error("undecodable image reached the face provider")
	}
}

func TestProcess_ImageTurn(t *testing.T) {
	p := newPipeline(t)

	res, err := p.orc.Process(context.Background(), Request{
		Image: &ImageInput{Data: pngData(t), Filename: "face.png"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.FacialEmotion == nil || res.FacialEmotion.Label != "HAPPY" {
		t.Errorf("FacialEmotion = %+v", res.FacialEmotion)
	}
	if res.Sentiment != nil || res.Response != "" || res.Transcript != "" {
		t.Errorf("image turn produced extra fields: %+v", res)
	}
}

func TestProcess_ImageUndecodable(t *testing.T) {
	p := newPipeline(t)

	res, err := p.orc.Process(context.Background(), Request{
		Image: &ImageInput{Data: []byte("definitely not an image"), Filename: "face.png"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	fe := res.FacialEmotion
	if fe == nil || fe.Label != face.LabelUnknown || fe.Score != 0 || fe.Error == "" {
		t.Fatalf("FacialEmotion = %+v, want the UNKNOWN sentinel with detail", fe)
	}
	if res.Sentiment != nil || res.Response != "" || res.Transcript != "" {
		t.Error("image turn produced extra fields")
	}
}

func TestProcess_FaceProviderFailureDegrades(t *testing.T) {
	p := newPipeline(t)
	p.face.Err = errors.New("sidecar unreachable")

	res, err := p.orc.Process(context.Background(), Request{
		Image: &ImageInput{Data: pngData(t), Filename: "face.png"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	fe := res.FacialEmotion
	if fe == nil || fe.Label != face.LabelUnknown || !strings.Contains(fe.Error, "sidecar unreachable") {
		t.Fatalf("FacialEmotion = %+v, want UNKNOWN with the provider detail", fe)
	}
}

func TestProcess_NoUsableInput(t *testing.T) {
	p := newPipeline(t)

	_, err := p.orc.Process(context.Background(), Request{})
	terr := asTurnError(t, err)
	if terr.Kind != KindInputRejected || terr.Reason != "no_input" {
		t.Fatalf("got %+v, want input_rejected/no_input", terr)
	}
}

func TestProcess_DurationNotEnforced(t *testing.T) {
	limits := validate.Limits{
		AllowedExtensions: []string{"wav"},
		MaxBytes:          10 << 20,
		MaxDuration:       30 * time.Second,
		EnforceDuration:   false,
	}
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	orc := New(Config{
		Validator: validate.New(limits, t.TempDir()),
		Limits:    limits,
		STT:       &sttmock.Provider{Text: "hello"},
		Sentiment: lexicon.New(),
		TTS:       &ttsmock.Provider{Audio: []byte("mp3")},
		Store:     store,
	})

	res, err := orc.Process(context.Background(), Request{
		Audio: &AudioInput{Data: wavData(t, 16000, 31*time.Second), Filename: "long.wav"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Duration == nil || *res.Duration < 30 {
		t.Errorf("Duration = %v, want the probed over-limit value reported", res.Duration)
	}
}
