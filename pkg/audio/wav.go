package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Fixed output format delivered to the front end.
const (
	OutputSampleRate    = 24000
	OutputChannels      = 1
	OutputBitsPerSample = 16

	headerSize = 44
)

// Format describes a linear PCM stream.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is 24kHz mono 16-bit, the format the live model emits.
func DefaultFormat() Format {
	return Format{SampleRate: OutputSampleRate, Channels: OutputChannels, BitsPerSample: OutputBitsPerSample}
}

// WrapWAV prepends a standard 44-byte RIFF/WAVE header to raw PCM bytes.
// Any payload length is accepted; the header fields are computed, not validated.
func WrapWAV(pcm []byte, f Format) []byte {
	dataSize := uint32(len(pcm))
	byteRate := uint32(f.SampleRate * f.Channels * f.BitsPerSample / 8)
	blockAlign := uint16(f.Channels * f.BitsPerSample / 8)

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(pcm)))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16)) // PCM chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))  // audio format (1 = PCM)
	binary.Write(buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, uint16(f.BitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)
	return buf.Bytes()
}

// ParseWAV reads back the format and PCM payload of a buffer produced by WrapWAV.
func ParseWAV(b []byte) (Format, []byte, error) {
	if len(b) < headerSize {
		return Format{}, nil, errors.New("wav: buffer shorter than header")
	}
	if !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return Format{}, nil, errors.New("wav: missing RIFF/WAVE markers")
	}
	f := Format{
		Channels:      int(binary.LittleEndian.Uint16(b[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(b[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(b[34:36])),
	}
	dataSize := binary.LittleEndian.Uint32(b[40:44])
	payload := b[headerSize:]
	if int(dataSize) > len(payload) {
		return Format{}, nil, fmt.Errorf("wav: data size %d exceeds payload %d", dataSize, len(payload))
	}
	return f, payload[:dataSize], nil
}

// HasWAVHeader reports whether b starts with the 4-byte RIFF magic and is long
// enough to carry the fixed 44-byte header.
func HasWAVHeader(b []byte) bool {
	return len(b) >= headerSize && bytes.Equal(b[0:4], []byte("RIFF"))
}

// StripWAVHeader removes exactly the first 44 bytes when the RIFF magic is
// present; otherwise the input is returned unchanged.
func StripWAVHeader(b []byte) []byte {
	if HasWAVHeader(b) {
		return b[headerSize:]
	}
	return b
}

// SilencePad returns millis milliseconds of zero-amplitude samples in the given
// format, prepended to model audio to mask playback startup latency.
func SilencePad(millis int, f Format) []byte {
	n := f.SampleRate * millis / 1000 * f.Channels * f.BitsPerSample / 8
	if n < 0 {
		n = 0
	}
	return make([]byte, n)
}
