package assistant

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"slices"
	"strings"

	// Registered decoders for DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"droidfolio/apperrors"
)

// DefaultMaxImageBytes caps decoded attachments when no limit is configured
const DefaultMaxImageBytes = 5 * 1024 * 1024

// DefaultImageTypes are the attachment MIME types accepted by default
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// decodeDataURL splits a base64 data URL ("data:image/png;base64,....")
// into its MIME type and bytes and checks the bytes really are that image.
func decodeDataURL(dataURL string, allowed []string, maxBytes int64) (*Blob, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, apperrors.NewInvalidImage("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, apperrors.NewInvalidImage("missing data section")
	}

	mimeType, encoding, _ := strings.Cut(header, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if encoding != "base64" {
		return nil, apperrors.NewInvalidImage("data URL must be base64 encoded")
	}
	if !slices.Contains(allowed, mimeType) {
		return nil, apperrors.NewInvalidImage("unsupported image type").WithDetails("mime_type", mimeType)
	}

	// Reject before decoding when the encoded form is already over the cap
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, apperrors.NewInvalidImage("image too large").WithDetails("max_bytes", maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, apperrors.NewInvalidImage("invalid base64 data").WithInternal(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.NewInvalidImage("image too large").WithDetails("max_bytes", maxBytes)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewInvalidImage("image data could not be decoded").WithInternal(err)
	}
	if "image/"+format != mimeType {
		return nil, apperrors.NewInvalidImage(fmt.Sprintf("image is %s, not %s", format, mimeType))
	}

	return &Blob{MIMEType: mimeType, Data: data}, nil
}
