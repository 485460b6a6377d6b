package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadTimeout = 60 * time.Second

// CloudinaryUploader sends unsigned uploads with an upload preset.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	preset string
}

// NewCloudinaryUploader builds an unsigned client for cloud. No API secret
// is needed; the preset decides folder and transformations.
func NewCloudinaryUploader(cloud, preset string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloud, "", "")
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryUploader{cld: cld, preset: preset}, nil
}

// SetEndpoint overrides the upload API base URL.
func (c *CloudinaryUploader) SetEndpoint(base string) {
	c.cld.Upload.Config.API.UploadPrefix = base
}

// Upload sends the file once; failures are not retried.
func (c *CloudinaryUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := c.cld.Upload.UnsignedUpload(ctx, r, c.preset, uploader.UploadParams{ResourceType: "image"})
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("upload %s: %w", filename, err)}
	}
	if res.Error.Message != "" || res.SecureURL == "" {
		return "", &UploadError{Message: res.Error.Message}
	}
	return res.SecureURL, nil
}
