package composer

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is an attached picture, kept both as raw base64 for the score request
// and as a data URL for the previews.
type Image struct {
	Name     string
	MIMEType string
	Size     int
	Base64   string
	DataURL  string
}

// DecodeImage reads an image file. maxBytes <= 0 disables the size check.
func DecodeImage(name string, r io.Reader, maxBytes int64) (*Image, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrImageTooLarge, name, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotAnImage, name)
	}

	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotAnImage, name, mime)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return &Image{
		Name:     name,
		MIMEType: mime,
		Size:     len(data),
		Base64:   encoded,
		DataURL:  "data:" + mime + ";base64," + encoded,
	}, nil
}

// AttachImage decodes r and, unless a newer selection or a removal happened in
// the meantime, makes it the attached image for every preview.
func (c *Controller) AttachImage(ctx context.Context, name string, r io.Reader) error {
	gen, err := c.beginAttach()
	if err != nil {
		return err
	}
	return c.finishAttach(ctx, gen, name, r)
}

// AttachImageAsync is AttachImage on its own goroutine. The selection is
// ordered at call time; the outcome arrives on the returned channel.
func (c *Controller) AttachImageAsync(ctx context.Context, name string, r io.Reader) <-chan error {
	out := make(chan error, 1)
	gen, err := c.beginAttach()
	if err != nil {
		out <- err
		close(out)
		return out
	}
	go func() {
		defer close(out)
		out <- c.finishAttach(ctx, gen, name, r)
	}()
	return out
}

// RemoveImage clears the attachment and hides every preview image.
func (c *Controller) RemoveImage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.imageGen++
	c.image = nil
	c.renderLocked()
}

func (c *Controller) beginAttach() (uint64, error) {
	if !c.opts.imagesEnabled {
		return 0, ErrImagesDisabled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageGen++
	return c.imageGen, nil
}

func (c *Controller) finishAttach(ctx context.Context, gen uint64, name string, r io.Reader) error {
	img, err := DecodeImage(name, r, c.opts.maxImageBytes)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.imageGen {
		return ErrImageSuperseded
	}
	c.image = img
	c.log.WithField("image", name).WithField("mime", img.MIMEType).Debug("Image attached")
	c.renderLocked()
	return nil
}
