package uploads

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a 1x1 PNG
var pngBytes, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8DwHwAFBQIAX8jx0gAAAABJRU5ErkJggg==")

func imageApp(t *testing.T) *fiber.App {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		img, err := ReadImage(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return c.SendString(img.MimeType)
	})
	return app
}

func TestReadImage_Multipart(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="rex.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	part.Write(pngBytes)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := imageApp(t).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "image/png", string(b))
}

func TestReadImage_Base64DataURL(t *testing.T) {
	form := url.Values{}
	form.Set("image_base64", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes))
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := imageApp(t).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReadImage_Rejects(t *testing.T) {
	for name, fields := range map[string]url.Values{
		"bad base64": {"image_base64": {"@@@"}},
		"not image":  {"image_base64": {base64.StdEncoding.EncodeToString([]byte("hello world"))}, "image_mime": {"text/plain"}},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(fields.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			resp, err := imageApp(t).Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestChecked_SniffsMime(t *testing.T) {
	img, err := checked(pngBytes, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	img, err = checked(nil, "image/png")
	require.NoError(t, err)
	assert.Empty(t, img.Data)
}
