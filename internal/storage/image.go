package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// AvatarSize is the edge length of stored avatars.
const AvatarSize = 256

// NormalizeAvatar decodes an uploaded image, honours its EXIF orientation,
// crops it to a centred square and re-encodes it as JPEG.
func NormalizeAvatar(r io.Reader) (*bytes.Buffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	return encodeSquare(img)
}

func encodeSquare(img image.Image) (*bytes.Buffer, error) {
	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return &buf, nil
}
