// Package audioconv decodes uploaded audio files into the 16 kHz mono float32
// PCM representation the speech recognizer expects. WAV and MP3 containers are
// supported; anything else is rejected at validation time before this package
// is reached.
package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// TargetSampleRate is the sample rate of the PCM produced by DecodeFile.
const TargetSampleRate = 16000

// ErrUnsupportedFormat indicates the file is neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("audioconv: unsupported format")

// DecodeFile reads the audio file at path and returns mono float32 samples in
// [-1, 1] resampled to [TargetSampleRate]. The extension decides the decoder;
// ".mpeg" is treated as MP3, matching the upload contract.
func DecodeFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audioconv: open %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3", ".mpeg":
		return decodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("audioconv: invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audioconv: read wav pcm: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("audioconv: empty wav file")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	samples := intToFloat32(buf.Data, depth)

	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	if channels > 1 {
		samples = downmix(samples, channels)
	}
	return resample(samples, rate, TargetSampleRate), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("audioconv: decode mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, fmt.Errorf("audioconv: read mp3 pcm: %w", err)
	}

	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, fmt.Errorf("audioconv: convert mp3 pcm: %w", err)
	}
	samples := int16ToFloat32(ints)
	// go-mp3 always emits interleaved stereo.
	samples = downmix(samples, 2)

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return resample(samples, rate, TargetSampleRate), nil
}

func intToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		s := float64(v) * scale
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = float32(s)
	}
	return out
}

func int16ToFloat32(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// downmix averages interleaved channels into mono.
func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// resample performs linear-interpolation resampling from inRate to outRate.
func resample(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		lo := int(math.Floor(src))
		hi := lo + 1
		switch {
		case lo >= len(in):
			out[i] = in[len(in)-1]
		case hi >= len(in):
			out[i] = in[lo]
		default:
			frac := float32(src - float64(lo))
			out[i] = in[lo]*(1-frac) + in[hi]*frac
		}
	}
	return out
}
