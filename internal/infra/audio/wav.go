package audio

import (
	"bytes"
	"encoding/binary"

	"docketvoice/internal/application"
)

// EncodeWAV wraps little-endian PCM in a canonical 44-byte WAV header.
func EncodeWAV(pcm []byte, format application.AudioFormat) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	blockAlign := format.Channels * format.BitDepth / 8
	byteRate := format.SampleRate * blockAlign
	dataSize := len(pcm)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes()
}

// SamplesToPCM packs 16-bit samples as little-endian bytes.
func SamplesToPCM(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// PCMToSamples is the inverse of SamplesToPCM. A trailing odd byte is dropped.
func PCMToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}
