package relay

import (
	"encoding/base64"
	"strings"

	"github.com/samber/lo"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/storage/transient"
)

// AllowedMIMETypes lists the upload content types accepted by SubmitFile
var AllowedMIMETypes = []string{
	"audio/mpeg", "audio/mp3", "audio/wav", "audio/x-wav", "audio/webm", "audio/ogg", "audio/mp4",
	"video/mp4", "video/webm", "video/ogg", "video/quicktime", "video/x-msvideo",
}

// octetStream is what sniffing reports for content it cannot identify
const octetStream = "application/octet-stream"

// NormalizeMIME lowercases a MIME type and strips parameters such as codecs
func NormalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsAllowedMIME reports whether mimeType is on the upload allow-list
func IsAllowedMIME(mimeType string) bool {
	return lo.Contains(AllowedMIMETypes, NormalizeMIME(mimeType))
}

// acceptSniffed is the strict buffer check: known media or unidentifiable
// binary passes, anything positively identified as something else does not.
func acceptSniffed(data []byte) (string, bool) {
	sniffed := transient.Sniff(data)
	return sniffed, sniffed == octetStream || transient.IsMediaType(sniffed) || IsAllowedMIME(sniffed)
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeAudio decodes base64 audio. A data URL prefix is accepted and its
// media type returned.
func DecodeAudio(encoded string) ([]byte, string, error) {
	var mimeType string
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		header, payload, ok := strings.Cut(encoded, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", apperrors.ErrInvalidEncoding
		}
		mimeType = NormalizeMIME(strings.TrimPrefix(header, "data:"))
		encoded = payload
	}

	encoded = strings.Join(strings.Fields(encoded), "")
	if encoded == "" {
		return nil, mimeType, apperrors.ErrEmptyAudio
	}

	for _, enc := range base64Encodings {
		if data, err := enc.DecodeString(encoded); err == nil {
			return data, mimeType, nil
		}
	}
	return nil, "", apperrors.ErrInvalidEncoding
}
