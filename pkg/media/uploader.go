package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrNotConfigured = errors.New("media service not configured")

type UploadResult struct {
	SecureURL string  `json:"secureUrl"`
	PublicID  string  `json:"publicId"`
	Duration  float64 `json:"duration"`
}

type Uploader interface {
	UploadVideo(ctx context.Context, filename string, file io.Reader) (*UploadResult, error)
}

// CloudinaryUploader performs unsigned video uploads with an upload preset.
type CloudinaryUploader struct {
	cld          *cloudinary.Cloudinary
	uploadPreset string
	err          error
}

var _ Uploader = &CloudinaryUploader{}

func NewCloudinaryUploader(cloudName, uploadPreset string) *CloudinaryUploader {
	u := &CloudinaryUploader{uploadPreset: uploadPreset}
	if cloudName == "" || uploadPreset == "" {
		u.err = ErrNotConfigured
		return u
	}

	// Unsigned uploads need no key pair.
	cld, err := cloudinary.NewFromParams(cloudName, "", "")
	if err != nil {
		u.err = fmt.Errorf("%w: %v", ErrNotConfigured, err)
		return u
	}
	cld.Config.URL.Secure = true
	u.cld = cld
	return u
}

func (c *CloudinaryUploader) UploadVideo(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	if c.err != nil {
		return nil, c.err
	}

	res, err := c.cld.Upload.UnsignedUpload(ctx, file, c.uploadPreset, uploader.UploadParams{
		ResourceType: "video",
	})
	if err != nil {
		return nil, fmt.Errorf("media upload failed for %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("media service: %s", res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return nil, fmt.Errorf("media service: no secure_url and/or public_id returned")
	}

	return &UploadResult{
		SecureURL: res.SecureURL,
		PublicID:  res.PublicID,
		Duration:  durationOf(res.Response),
	}, nil
}

// The typed upload result has no duration; videos report it in the raw body.
func durationOf(raw interface{}) float64 {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return 0
	}
	d, _ := m["duration"].(float64)
	return d
}
