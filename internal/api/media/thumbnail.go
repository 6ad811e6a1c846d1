package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const thumbWidth = 400

type thumbnail struct {
	data   []byte
	width  int
	height int
}

// makeThumbnail returns nil for types that do not get a thumbnail. width
// and height describe the original image.
func makeThumbnail(data []byte, mime string) (*thumbnail, error) {
	var format imaging.Format
	switch mime {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return nil, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()

	thumb := img
	if bounds.Dx() > thumbWidth {
		thumb = imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return &thumbnail{data: buf.Bytes(), width: bounds.Dx(), height: bounds.Dy()}, nil
}
