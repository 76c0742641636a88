package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// WAV parameters fixed for upstream submission: 16-bit signed little-endian
// PCM, the format every transcription API accepts.
const bitsPerSample = 16

// EncodeWAV renders the clip as a RIFF/WAVE file with a 44-byte header and
// 16-bit PCM data. Samples outside [-1, 1] are clamped.
func EncodeWAV(c *Clip) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dataSize := len(c.Samples) * 2
	byteRate := c.SampleRate * c.Channels * bitsPerSample / 8
	blockAlign := c.Channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	// RIFF chunk
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(c.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range c.Samples {
		binary.Write(&buf, binary.LittleEndian, floatToPCM16(s))
	}

	return buf.Bytes(), nil
}

// DecodeWAV parses a 16-bit PCM RIFF/WAVE file into a Clip. Used by the
// chat command to submit pre-recorded answers from disk.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var (
		channels   int
		sampleRate int
		bits       int
		pcm        []byte
	)

	// Walk the chunk list; fmt must precede data.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("fmt chunk too short")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))

		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		offset = body + size + size%2
	}

	if channels == 0 || sampleRate == 0 {
		return nil, errors.New("missing fmt chunk")
	}
	if pcm == nil {
		return nil, errors.New("missing data chunk")
	}
	if bits != bitsPerSample {
		return nil, fmt.Errorf("unsupported bit depth %d (want %d)", bits, bitsPerSample)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(v) / 32768.0
	}

	clip := &Clip{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}
	if err := clip.Validate(); err != nil {
		return nil, err
	}

	return clip, nil
}

func floatToPCM16(s float32) int16 {
	switch {
	case s >= 1.0:
		return math.MaxInt16
	case s <= -1.0:
		return math.MinInt16
	default:
		return int16(s * 32767)
	}
}
