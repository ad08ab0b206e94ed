package service

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 480) // 10ms of mono 24kHz 16-bit audio
	wav := EncodeSpeechWAV(pcm)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.EqualValues(t, 36+len(pcm), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.EqualValues(t, 16, binary.LittleEndian.Uint32(wav[16:20]))
	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(wav[20:22]), "PCM format tag")
	assert.EqualValues(t, SpeechChannels, binary.LittleEndian.Uint16(wav[22:24]))
	assert.EqualValues(t, SpeechSampleRate, binary.LittleEndian.Uint32(wav[24:28]))
	assert.EqualValues(t, SpeechSampleRate*SpeechChannels*2, binary.LittleEndian.Uint32(wav[28:32]))
	assert.EqualValues(t, SpeechChannels*2, binary.LittleEndian.Uint16(wav[32:34]))
	assert.EqualValues(t, SpeechBitsPerSample, binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.EqualValues(t, len(pcm), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestEncodeWAVEmptyPayload(t *testing.T) {
	wav := EncodeWAV(nil, 44100, 2, 16)
	require.Len(t, wav, 44)
	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(wav[40:44]))
}
