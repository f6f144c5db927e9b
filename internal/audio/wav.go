package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Format describes the PCM layout of a WAV clip.
type Format struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

func (f Format) byteRate() float64 {
	return float64(f.SampleRate) * float64(f.Channels) * float64(f.BitsPerSample/8)
}

// Decode walks the RIFF chunks of a WAV clip and returns its format and raw
// PCM payload.
func Decode(wav []byte) (Format, []byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Format{}, nil, errors.New("not a WAV file")
	}

	var f Format
	var data []byte
	seenFmt := false

	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(wav) {
			chunkSize = len(wav) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Format{}, nil, errors.New("invalid fmt chunk")
			}
			f.Channels = binary.LittleEndian.Uint16(wav[body+2 : body+4])
			f.SampleRate = binary.LittleEndian.Uint32(wav[body+4 : body+8])
			f.BitsPerSample = binary.LittleEndian.Uint16(wav[body+14 : body+16])
			seenFmt = true
		case "data":
			data = wav[body : body+chunkSize]
		}

		if chunkSize%2 == 1 {
			chunkSize++
		}
		pos = body + chunkSize
	}

	if !seenFmt || f.SampleRate == 0 || f.Channels == 0 || f.BitsPerSample == 0 {
		return Format{}, nil, errors.New("missing audio format information")
	}
	if data == nil {
		return Format{}, nil, errors.New("missing data chunk")
	}

	return f, data, nil
}

// Encode wraps raw PCM samples in a standard 44-byte WAV header.
func Encode(f Format, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * uint32(blockAlign)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, f.Channels)
	binary.Write(&buf, binary.LittleEndian, f.SampleRate)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, f.BitsPerSample)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// Concat joins WAV clips into one clip, in the order given. All clips must
// share the same PCM format.
func Concat(clips [][]byte) ([]byte, error) {
	if len(clips) == 0 {
		return nil, errors.New("no clips to concatenate")
	}

	var f Format
	var pcm []byte

	for i, clip := range clips {
		cf, data, err := Decode(clip)
		if err != nil {
			return nil, fmt.Errorf("decode clip %d: %w", i, err)
		}
		if i == 0 {
			f = cf
		} else if cf != f {
			return nil, fmt.Errorf("clip %d format mismatch: %+v != %+v", i, cf, f)
		}
		pcm = append(pcm, data...)
	}

	return Encode(f, pcm), nil
}

// Duration computes the real playback length of a WAV clip from its PCM
// payload size, not from any estimate.
func Duration(wav []byte) (time.Duration, error) {
	f, data, err := Decode(wav)
	if err != nil {
		return 0, err
	}

	seconds := float64(len(data)) / f.byteRate()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, errors.New("invalid duration computed")
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
