package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "whisper-relay/internal/app/errors"
)

func TestIsAllowedMIME(t *testing.T) {
	assert.True(t, IsAllowedMIME("audio/mpeg"))
	assert.True(t, IsAllowedMIME("audio/webm; codecs=opus"))
	assert.True(t, IsAllowedMIME(" VIDEO/QUICKTIME "))
	assert.False(t, IsAllowedMIME("audio/flac"))
	assert.False(t, IsAllowedMIME("application/octet-stream"))
	assert.False(t, IsAllowedMIME(""))
}

func TestDecodeAudio(t *testing.T) {
	tests := []struct {
		name         string
		encoded      string
		expected     []byte
		expectedMIME string
		expectedErr  error
	}{
		{name: "padded", encoded: "aGVsbG8=", expected: []byte("hello")},
		{name: "unpadded", encoded: "aGVsbG8", expected: []byte("hello")},
		{name: "url safe", encoded: "-_8=", expected: []byte{0xfb, 0xff}},
		{name: "wrapped lines", encoded: "aGVs\nbG8=", expected: []byte("hello")},
		{name: "data url", encoded: "data:audio/ogg;base64,aGVsbG8=", expected: []byte("hello"), expectedMIME: "audio/ogg"},
		{name: "invalid", encoded: "%%%", expectedErr: apperrors.ErrInvalidEncoding},
		{name: "empty payload", encoded: "data:audio/ogg;base64,", expectedErr: apperrors.ErrEmptyAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mimeType, err := DecodeAudio(tt.encoded)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data)
			assert.Equal(t, tt.expectedMIME, mimeType)
		})
	}
}
