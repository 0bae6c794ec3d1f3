// Package uploads reads images out of request bodies for the handlers that accept them.
package uploads

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	uploadsvc "petadopt-backend/internal/application/uploads"

	"github.com/gofiber/fiber/v2"
)

// MaxImageBytes bounds a single picture.
const MaxImageBytes = 10 << 20

var (
	ErrImageTooLarge = errors.New("Image must be 10MB or smaller")
	ErrImageEncoding = errors.New("image_base64 is not valid base64")
	ErrNotAnImage    = errors.New("Only image files can be uploaded")
)

// ReadImage takes the picture from the multipart "image" file or from the
// image_base64 and image_mime fields. No image yields an empty Image and no error,
// so the caller's required-field check reports it.
func ReadImage(c *fiber.Ctx) (uploadsvc.Image, error) {
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > MaxImageBytes {
			return uploadsvc.Image{}, ErrImageTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return uploadsvc.Image{}, err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
		if err != nil {
			return uploadsvc.Image{}, err
		}
		return checked(data, fh.Header.Get("Content-Type"))
	}

	raw := strings.TrimSpace(c.FormValue("image_base64"))
	if raw == "" {
		return uploadsvc.Image{}, nil
	}
	mime := strings.TrimSpace(c.FormValue("image_mime"))
	// accept a full data URL as well
	if strings.HasPrefix(raw, "data:") {
		if i := strings.Index(raw, ";base64,"); i > 0 {
			if mime == "" {
				mime = raw[len("data:"):i]
			}
			raw = raw[i+len(";base64,"):]
		}
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return uploadsvc.Image{}, ErrImageEncoding
	}
	return checked(data, mime)
}

func checked(data []byte, mime string) (uploadsvc.Image, error) {
	if len(data) > MaxImageBytes {
		return uploadsvc.Image{}, ErrImageTooLarge
	}
	if len(data) == 0 {
		return uploadsvc.Image{}, nil
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return uploadsvc.Image{}, ErrNotAnImage
	}
	return uploadsvc.Image{Data: data, MimeType: mime}, nil
}
