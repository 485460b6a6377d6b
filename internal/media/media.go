// Package media uploads images to an external host and validates the
// resulting URLs before they are stored.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/metrics"
)

// FallbackMessage is shown when the upload service gives no reason.
const FallbackMessage = "Не вдалося завантажити фото"

var ErrNotImage = errors.New("only image uploads are accepted")

// Uploader stores one file and returns its permanent https URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
}

// UploadError carries the message reported by the upload service.
type UploadError struct {
	Status  int
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return FallbackMessage
	}
	return e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

// Message returns what to show the owner for err.
func Message(err error) string {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	if errors.Is(err, ErrNotImage) {
		return err.Error()
	}
	return FallbackMessage
}

// IsImage is the accept filter: image/* only.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

// instrumented counts uploads per backend.
type instrumented struct {
	backend string
	next    Uploader
}

func (i instrumented) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if !IsImage(contentType) {
		metrics.MediaUploads.WithLabelValues(i.backend, "rejected").Inc()
		return "", ErrNotImage
	}
	u, err := i.next.Upload(ctx, filename, contentType, r, size)
	if err != nil {
		logger.Errorf("media: %s upload of %q failed: %v", i.backend, filename, err)
		metrics.MediaUploads.WithLabelValues(i.backend, "failed").Inc()
		return "", err
	}
	metrics.MediaUploads.WithLabelValues(i.backend, "ok").Inc()
	return u, nil
}

// Allowlist accepts https URLs on listed hosts. An entry written as an
// origin ("http://localhost:9000") also allows that exact scheme and host.
type Allowlist struct {
	hosts   map[string]bool
	origins map[string]bool
}

func NewAllowlist(entries ...string) *Allowlist {
	a := &Allowlist{hosts: map[string]bool{}, origins: map[string]bool{}}
	for _, e := range entries {
		e = strings.TrimSpace(strings.ToLower(e))
		if e == "" {
			continue
		}
		if strings.Contains(e, "://") {
			if u, err := url.Parse(e); err == nil && u.Host != "" {
				a.origins[u.Scheme+"://"+u.Host] = true
			}
			continue
		}
		a.hosts[e] = true
	}
	return a
}

// Check implements content.MediaPolicy.
func (a *Allowlist) Check(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("not an absolute url: %q", raw)
	}
	host := strings.ToLower(u.Host)
	if a.origins[strings.ToLower(u.Scheme)+"://"+host] {
		return nil
	}
	if u.Scheme != "https" {
		return fmt.Errorf("media url must be https: %q", raw)
	}
	if !a.hosts[host] && !a.hosts[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("media host %q is not allowed", u.Hostname())
	}
	return nil
}
