package media

import (
	"context"
	"fmt"
	"net/url"
)

const (
	BackendCloudinary = "cloudinary"
	BackendMinIO      = "minio"
)

// Config selects and configures the upload backend.
type Config struct {
	Backend      string `validate:"omitempty,oneof=cloudinary minio"`
	CloudName    string
	UploadPreset string
	MinIO        MinIOConfig
	AllowedHosts []string
}

// New builds the configured uploader. An empty backend means uploads are
// disabled and nil is returned.
func New(ctx context.Context, cfg Config) (Uploader, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case BackendCloudinary:
		if cfg.CloudName == "" || cfg.UploadPreset == "" {
			return nil, fmt.Errorf("cloudinary needs a cloud name and an upload preset")
		}
		u, err := NewCloudinaryUploader(cfg.CloudName, cfg.UploadPreset)
		if err != nil {
			return nil, err
		}
		return instrumented{backend: BackendCloudinary, next: u}, nil
	case BackendMinIO:
		u, err := NewMinIOUploader(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return instrumented{backend: BackendMinIO, next: u}, nil
	}
	return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
}

// Policy returns the allow-list for stored media URLs: the configured
// hosts, res.cloudinary.com for the Cloudinary backend, and the public
// MinIO origin.
func Policy(cfg Config) *Allowlist {
	entries := append([]string{}, cfg.AllowedHosts...)
	if cfg.Backend == BackendCloudinary {
		entries = append(entries, "res.cloudinary.com")
	}
	if cfg.Backend == BackendMinIO && cfg.MinIO.Endpoint != "" {
		if u, err := url.Parse(publicBase(cfg.MinIO)); err == nil {
			entries = append(entries, u.Scheme+"://"+u.Host)
		}
	}
	return NewAllowlist(entries...)
}
