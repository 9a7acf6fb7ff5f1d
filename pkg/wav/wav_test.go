package wav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMIME(t *testing.T) {
	tests := []struct {
		mime string
		want Format
	}{
		{"audio/L16;codec=pcm;rate=24000", Format{SampleRate: 24000, BitsPerSample: 16, Channels: 1}},
		{"audio/L24;rate=48000", Format{SampleRate: 48000, BitsPerSample: 24, Channels: 1}},
		{"audio/L16", DefaultFormat},
		{"audio/L16; rate=bogus", DefaultFormat},
		{"", DefaultFormat},
		{"audio/pcm;rate=16000;channels=2", Format{SampleRate: 16000, BitsPerSample: 16, Channels: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMIME(tt.mime))
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	pcm := make([]byte, 480)
	data := Encode(pcm, DefaultFormat)

	require.Len(t, data, 44+480)
	assert.True(t, IsWAV(data))

	f, size, err := Info(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, f)
	assert.Equal(t, 480, size)
}

func TestDuration(t *testing.T) {
	data := Silence(1500*time.Millisecond, DefaultFormat)

	d, err := Duration(data)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)
}

func TestInfoRejectsGarbage(t *testing.T) {
	_, _, err := Info([]byte("not a wav file at all"))
	assert.Error(t, err)

	_, err = Duration([]byte("RIFF\x00\x00\x00\x00WAVE"))
	assert.Error(t, err)
}

func TestPCMRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	f := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

	got, samples, err := PCM(Encode(pcm, f))
	require.NoError(t, err)
	assert.Equal(t, f, got)
	assert.Equal(t, pcm, samples)
}
