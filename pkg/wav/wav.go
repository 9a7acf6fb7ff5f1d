// Package wav wraps raw PCM in a RIFF/WAVE container and reads back the
// format and duration of WAV payloads.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"
)

// Format describes linear PCM.
type Format struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
}

// DefaultFormat is what the TTS endpoint emits: 16-bit mono at 24 kHz.
var DefaultFormat = Format{SampleRate: 24000, BitsPerSample: 16, Channels: 1}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ParseMIME reads bits per sample and rate from MIME types such as
// "audio/L16;codec=pcm;rate=24000". Missing or malformed values fall back to
// DefaultFormat.
func ParseMIME(mimeType string) Format {
	f := DefaultFormat

	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType, params = fallbackParse(mimeType)
	}

	if strings.HasPrefix(mediaType, "audio/l") {
		if bits, err := strconv.Atoi(strings.TrimPrefix(mediaType, "audio/l")); err == nil && bits > 0 {
			f.BitsPerSample = bits
		}
	}
	if rate, err := strconv.Atoi(params["rate"]); err == nil && rate > 0 {
		f.SampleRate = rate
	}
	if ch, err := strconv.Atoi(params["channels"]); err == nil && ch > 0 {
		f.Channels = ch
	}
	return f
}

func fallbackParse(mimeType string) (string, map[string]string) {
	parts := strings.Split(mimeType, ";")
	params := make(map[string]string)
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok {
			params[strings.ToLower(k)] = v
		}
	}
	return strings.ToLower(strings.TrimSpace(parts[0])), params
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Encode prepends a 44-byte PCM WAV header to pcm.
func Encode(pcm []byte, f Format) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	dataSize := uint32(len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(f.ByteRate()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.blockAlign()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(f.BitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

// Silence returns a WAV of zero samples lasting d.
func Silence(d time.Duration, f Format) []byte {
	frames := int(d.Seconds() * float64(f.SampleRate))
	return Encode(make([]byte, frames*f.blockAlign()), f)
}

// Info reads the format and data length of a WAV payload.
func Info(data []byte) (Format, int, error) {
	f, _, size, err := locate(data)
	return f, size, err
}

// PCM returns the format and sample bytes of a WAV payload.
func PCM(data []byte) (Format, []byte, error) {
	f, offset, size, err := locate(data)
	if err != nil {
		return Format{}, nil, err
	}
	return f, data[offset : offset+size], nil
}

// locate walks the RIFF chunks and returns the format plus the offset and
// length of the data chunk.
func locate(data []byte) (Format, int, int, error) {
	if !IsWAV(data) {
		return Format{}, 0, 0, errors.New("wav: missing RIFF/WAVE header")
	}

	var f Format
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return Format{}, 0, 0, errors.New("wav: truncated fmt chunk")
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, 0, 0, errors.New("wav: data chunk before fmt chunk")
			}
			if body+size > len(data) {
				size = len(data) - body
			}
			return f, body, size, nil
		}

		pos = body + size + size%2
	}
	return Format{}, 0, 0, errors.New("wav: no data chunk")
}

// Duration computes the playing time of a WAV payload.
func Duration(data []byte) (time.Duration, error) {
	f, size, err := Info(data)
	if err != nil {
		return 0, err
	}
	if f.ByteRate() == 0 {
		return 0, fmt.Errorf("wav: invalid format %+v", f)
	}
	return time.Duration(float64(size) / float64(f.ByteRate()) * float64(time.Second)), nil
}
