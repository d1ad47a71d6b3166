package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dberrors "github.com/julianstephens/dearbaby/internal/errors"
)

func TestFileDevice_Capture(t *testing.T) {
	src := filepath.Join(t.TempDir(), "lullaby.m4a")
	if err := os.WriteFile(src, []byte("la la la"), 0644); err != nil {
		t.Fatal(err)
	}

	d := &FileDevice{Source: src}
	rc, err := d.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	defer rc.Close()

	b, _ := io.ReadAll(rc)
	if string(b) != "la la la" {
		t.Errorf("expected source contents, got %q", b)
	}
}

func TestFileDevice_CaptureUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		device *FileDevice
	}{
		{"no source", &FileDevice{}},
		{"missing file", &FileDevice{Source: filepath.Join(t.TempDir(), "nope.m4a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.device.Capture(context.Background())
			if !errors.Is(err, dberrors.ErrDeviceUnavailable) {
				t.Errorf("expected ErrDeviceUnavailable, got %v", err)
			}
		})
	}
}

func TestFileDevice_Render(t *testing.T) {
	var out bytes.Buffer
	d := &FileDevice{Out: &out}

	if err := d.Render(context.Background(), strings.NewReader("hello")); err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("expected 'hello', got %q", out.String())
	}
}

func TestFileDevice_RenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &FileDevice{}
	err := d.Render(ctx, strings.NewReader("hello"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	var d Unavailable
	if _, err := d.Capture(context.Background()); !errors.Is(err, dberrors.ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
	if err := d.Render(context.Background(), strings.NewReader("")); !errors.Is(err, dberrors.ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
}
