package usecase

import (
	"context"
	"time"

	"lesson-pix/pkg/pix"
	"lesson-pix/pkg/qrcode"

	"go.uber.org/zap"
)

// CodeEncoder finalizes payloads and asks the renderer for an image.
// A timed-out render keeps running until the renderer observes its
// cancelled context.
// Rendering is best effort: a slow or failing renderer yields a code
// without image.
type CodeEncoder struct {
	renderer qrcode.Renderer
	size     int
	timeout  time.Duration
	log      *zap.Logger
}

func NewCodeEncoder(renderer qrcode.Renderer, size int, timeout time.Duration, log *zap.Logger) *CodeEncoder {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &CodeEncoder{
		renderer: renderer,
		size:     size,
		timeout:  timeout,
		log:      log.With(zap.String("component", "code_encoder")),
	}
}

// Encode appends the checksum to payload.
func (e *CodeEncoder) Encode(payload string) string {
	return pix.AppendCRC(payload)
}

// Render draws code under name and returns the image reference, or nil when
// the renderer is missing, fails or runs past the timeout.
func (e *CodeEncoder) Render(ctx context.Context, name, code string) *string {
	if e.renderer == nil {
		return nil
	}

	ref, err := e.render(ctx, name, code)
	if err != nil {
		e.log.Warn("QR rendering failed, returning code without image",
			zap.String("name", name),
			zap.Error(&ExternalServiceError{Service: "qr renderer", Err: err}),
		)
		return nil
	}
	return &ref
}

func (e *CodeEncoder) render(ctx context.Context, name, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		ref string
		err error
	}
	done := make(chan result, 1)
	go func() {
		ref, err := e.renderer.Render(ctx, name, code, e.size)
		done <- result{ref, err}
	}()

	select {
	case res := <-done:
		return res.ref, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
