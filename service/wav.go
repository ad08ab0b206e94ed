package service

import (
	"bytes"
	"encoding/binary"
)

// Speech payload conventions of the provider: raw mono 24kHz 16-bit
// signed little-endian PCM. Players cannot consume that directly, so we
// wrap it into a WAV container before storing.
const (
	SpeechSampleRate    = 24000
	SpeechChannels      = 1
	SpeechBitsPerSample = 16
)

// EncodeWAV wraps raw PCM in a RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	bytesPerSample := bitsPerSample / 8
	dataSize := len(pcm)
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	buf := &bytes.Buffer{}

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	_, _ = buf.Write(pcm)

	return buf.Bytes()
}

// EncodeSpeechWAV applies the provider's fixed speech conventions.
func EncodeSpeechWAV(pcm []byte) []byte {
	return EncodeWAV(pcm, SpeechSampleRate, SpeechChannels, SpeechBitsPerSample)
}
