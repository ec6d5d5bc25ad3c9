package extractor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/imagefetch"
)

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 2), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test png: %v", err)
	}
	return name
}

func TestExtractInappropriateContent(t *testing.T) {
	dir := t.TempDir()
	key := writeTestPNG(t, dir, "card.png")

	ex := NewExtractor(
		imagefetch.NewLocalFetcher(dir),
		&FakeModerator{Labels: []ModerationLabel{{Name: "violence", Confidence: 0.9}}},
		&FakeOCREngine{},
	)

	_, err := ex.Extract(context.Background(), key)
	if !cardmodel.IsKind(err, cardmodel.KindInappropriate) {
		t.Fatalf("expected KindInappropriate, got %v", err)
	}
}

func TestExtractInvalidCardImage(t *testing.T) {
	dir := t.TempDir()
	key := writeTestPNG(t, dir, "card.png")

	ex := NewExtractor(
		imagefetch.NewLocalFetcher(dir),
		&FakeModerator{HasCard: false},
		&FakeOCREngine{},
	)

	_, err := ex.Extract(context.Background(), key)
	if !cardmodel.IsKind(err, cardmodel.KindInvalidCardImage) {
		t.Fatalf("expected KindInvalidCardImage, got %v", err)
	}
}

func TestExtractSuccess(t *testing.T) {
	dir := t.TempDir()
	key := writeTestPNG(t, dir, "card.png")

	blocks := []cardmodel.OCRBlock{
		{Text: "Charizard", Confidence: 0.95, Box: cardmodel.BoundingBox{Top: 0.05, Left: 0.1, Width: 0.5, Height: 0.05}, Type: cardmodel.OCRBlockLine},
	}
	ex := NewExtractor(
		imagefetch.NewLocalFetcher(dir),
		&FakeModerator{HasCard: true},
		&FakeOCREngine{Blocks: blocks},
	)

	envelope, err := ex.Extract(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(envelope.OCRBlocks) != 1 {
		t.Fatalf("expected 1 ocr block, got %d", len(envelope.OCRBlocks))
	}
	if envelope.Image.Width != 64 || envelope.Image.Height != 96 {
		t.Fatalf("unexpected image meta: %+v", envelope.Image)
	}
}
