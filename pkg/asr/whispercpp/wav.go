package whispercpp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// wavAudio is the decoded payload of a PCM WAV file.
type wavAudio struct {
	samples    []float32
	sampleRate int
	channels   int
}

// decodeWAV parses a RIFF/WAVE container holding 16-bit signed little-endian
// PCM audio and returns mono float32 samples normalised to [-1.0, 1.0].
// Multi-channel audio is down-mixed by averaging all channels per frame.
// Only format 1 (integer PCM) at 16 bits per sample is supported; the media
// extraction step produces exactly that.
func decodeWAV(data []byte) (*wavAudio, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("whispercpp: not a RIFF/WAVE file")
	}

	var (
		haveFmt    bool
		channels   int
		sampleRate int
		pcm        []byte
	)

	// Walk the chunk list. Chunk payloads are padded to even lengths.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("whispercpp: truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("whispercpp: fmt chunk too short")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("whispercpp: unsupported audio format %d (want PCM)", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if bits != 16 {
				return nil, fmt.Errorf("whispercpp: unsupported bit depth %d (want 16)", bits)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return nil, errors.New("whispercpp: missing fmt chunk")
	}
	if pcm == nil {
		return nil, errors.New("whispercpp: missing data chunk")
	}
	if channels < 1 {
		return nil, fmt.Errorf("whispercpp: invalid channel count %d", channels)
	}

	return &wavAudio{
		samples:    pcmToFloat32Mono(pcm, channels),
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// pcmToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame. Any trailing partial frame is ignored.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
