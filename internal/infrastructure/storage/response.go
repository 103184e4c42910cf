package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/yokitheyo/imagekit/internal/domain"
)

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// ResponseOptions tune how a stored image is served.
type ResponseOptions struct {
	ContentType string
	Headers     map[string]string
	// Cache is nil for no cache headers, false for no-cache and a number of
	// seconds for a public max-age.
	Cache       *Cache
	Disposition string
	Filename    string
}

type Cache struct {
	Disabled bool
	MaxAge   int
}

func NoCache() *Cache { return &Cache{Disabled: true} }

func MaxAge(seconds int) *Cache { return &Cache{MaxAge: seconds} }

// Response is a fully buffered HTTP response for a stored image.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

func (r *Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// Response serves the object inline unless the options say otherwise.
func (m *Manager) Response(ctx context.Context, disk, p string, opts ResponseOptions) (*Response, error) {
	d, err := m.Disk(disk)
	if err != nil {
		return nil, err
	}
	if !d.Exists(ctx, p) {
		return nil, domain.NotFound("image file does not exist: %s", p)
	}
	body, err := d.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", p, err)
	}

	h := make(http.Header)
	for k, v := range opts.Headers {
		h.Set(k, v)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = domain.MimeTypeFor(path.Ext(p))
	}
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))

	if opts.Cache != nil {
		if opts.Cache.Disabled {
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		} else {
			h.Set("Cache-Control", "public, max-age="+strconv.Itoa(opts.Cache.MaxAge))
		}
	}

	disposition := opts.Disposition
	if disposition == "" {
		disposition = DispositionInline
	}
	filename := opts.Filename
	if filename == "" {
		filename = path.Base(p)
	}
	h.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))

	return &Response{Status: http.StatusOK, Headers: h, Body: body}, nil
}

// Download serves the object as an attachment named name, or its base name.
func (m *Manager) Download(ctx context.Context, disk, p, name string, headers map[string]string) (*Response, error) {
	return m.Response(ctx, disk, p, ResponseOptions{
		Headers:     headers,
		Disposition: DispositionAttachment,
		Filename:    name,
	})
}
