package uploader

import (
	"bytes"
	"image/jpeg"

	"social-service/internal/observability"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// Compress re-encodes JPEG data at quality. Other formats are returned as is,
// so transparency and animation survive. The original bytes also come back
// when decoding or encoding fails, or when the result is not smaller.
func Compress(data []byte, quality int) []byte {
	if quality <= 0 || quality > 100 || !bytes.HasPrefix(data, jpegMagic) {
		return data
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		observability.IncAttachmentUpload("compress_skipped")
		return data
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		observability.IncAttachmentUpload("compress_skipped")
		return data
	}
	if buf.Len() >= len(data) {
		return data
	}
	return buf.Bytes()
}
