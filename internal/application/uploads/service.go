package uploads

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned by every call when the cloud name is missing.
	ErrNotConfigured = errors.New("image host: CLOUDINARY_CLOUD_NAME is not set")
	// ErrNoSecureURL means the host answered without a secure_url.
	ErrNoSecureURL = errors.New("Failed to upload image.")
	ErrEmptyImage  = errors.New("image is empty")
)

// Image is the raw picture a client selected.
type Image struct {
	Data     []byte
	MimeType string // defaults to image/jpeg
}

// DataURL renders the image as a base64 data URL, the form the upload endpoint accepts.
func (img Image) DataURL() string {
	mime := strings.TrimSpace(img.MimeType)
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Uploaded is the stored asset.
type Uploaded struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Uploader stores images on the external host and removes them again.
type Uploader interface {
	Upload(ctx context.Context, img Image) (*Uploaded, error)
	Destroy(ctx context.Context, publicID string) error
}

// CloudinaryClient is an Uploader backed by the Cloudinary upload API.
// Uploads are unsigned (upload preset); Destroy is signed with the API secret.
type CloudinaryClient struct {
	BaseURL      string // https://api.cloudinary.com
	CloudName    string
	UploadPreset string
	APIKey       string
	APISecret    string
	Client       *http.Client
	Now          func() time.Time
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Result    string `json:"result"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *CloudinaryClient) endpoint(action string) (string, error) {
	if strings.TrimSpace(c.CloudName) == "" {
		return "", ErrNotConfigured
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = "https://api.cloudinary.com"
	}
	return fmt.Sprintf("%s/v1_1/%s/image/%s", base, c.CloudName, action), nil
}

func (c *CloudinaryClient) httpClient() *http.Client {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return c.Client
}

func (c *CloudinaryClient) post(ctx context.Context, endpoint string, form url.Values) (*cloudinaryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("image host request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out cloudinaryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("image host: status %d: undecodable body: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("image host: status %d: %s", resp.StatusCode, msg)
	}
	return &out, nil
}

// Upload sends the image as a data URL with the upload preset.
func (c *CloudinaryClient) Upload(ctx context.Context, img Image) (*Uploaded, error) {
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}
	endpoint, err := c.endpoint("upload")
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("file", img.DataURL())
	form.Set("upload_preset", c.UploadPreset)

	out, err := c.post(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}
	if out.SecureURL == "" {
		return nil, ErrNoSecureURL
	}
	return &Uploaded{SecureURL: out.SecureURL, PublicID: out.PublicID}, nil
}

// Destroy deletes an uploaded asset by public id.
func (c *CloudinaryClient) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	endpoint, err := c.endpoint("destroy")
	if err != nil {
		return err
	}
	if c.APIKey == "" || c.APISecret == "" {
		return errors.New("image host: destroy needs CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("api_key", c.APIKey)
	form.Set("signature", Sign(params, c.APISecret))

	out, err := c.post(ctx, endpoint, form)
	if err != nil {
		return err
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("image host: destroy %s: result %q", publicID, out.Result)
	}
	return nil
}

// Sign computes the API signature: SHA-1 over "k1=v1&k2=v2" (keys sorted) followed by the secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}
