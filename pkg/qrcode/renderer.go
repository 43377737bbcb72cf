package qrcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goqrcode "github.com/skip2/go-qrcode"
)

// Renderer turns a payment code into a stored image and returns a reference
// to it.
type Renderer interface {
	Render(ctx context.Context, name, content string, size int) (string, error)
}

// FileRenderer writes PNG images into Dir and returns URLs under BaseURL.
type FileRenderer struct {
	Dir     string
	BaseURL string
	Level   goqrcode.RecoveryLevel
}

func NewFileRenderer(dir, baseURL string) *FileRenderer {
	return &FileRenderer{
		Dir:     dir,
		BaseURL: baseURL,
		Level:   goqrcode.Medium,
	}
}

func (r *FileRenderer) Render(ctx context.Context, name, content string, size int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	png, err := goqrcode.Encode(content, r.Level, size)
	if err != nil {
		return "", fmt.Errorf("encode qr image: %w", err)
	}

	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("create qr dir %s: %w", r.Dir, err)
	}

	// the caller may have given up while encoding
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file := name + ".png"
	path := filepath.Join(r.Dir, file)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("write qr image %s: %w", file, err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(path)
		return "", err
	}

	return r.BaseURL + file, nil
}
