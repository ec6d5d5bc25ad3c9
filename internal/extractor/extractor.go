// Package extractor implements the Feature Extractor stage: fetch,
// content-safety and card-type screening, localization, OCR, and the
// visual metrics the downstream stages reason over. It generalizes the
// teacher's internal/processor image-preprocessing pipeline
// (disintegration/imaging enhancement passes, quality scoring) from
// "clean an image up for OCR" to "measure a card's visual properties".
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/imagefetch"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
)

// ModerationLabel is one content-safety or card-type classification.
type ModerationLabel struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Moderator screens an image for unsafe content and trading-card evidence,
// standing in for the cloud vision classifier named in spec.md §4.1.
type Moderator interface {
	Classify(ctx context.Context, imageData []byte) ([]ModerationLabel, error)
	DetectCardEvidence(ctx context.Context, imageData []byte) (bool, error)
}

var blockedLabels = map[string]bool{
	"explicit nudity": true, "suggestive": true, "violence": true,
	"disturbing": true, "rude gestures": true, "drugs": true,
	"tobacco": true, "alcohol": true, "gambling": true,
	"hate symbols": true, "exposed nudity": true, "partial nudity": true,
}

const moderationThreshold = 0.60

// OCREngine performs text detection over the full image, standing in
// for the OCR call the teacher makes via Gemini's vision model.
type OCREngine interface {
	DetectText(ctx context.Context, imageData []byte) ([]cardmodel.OCRBlock, error)
}

// Extractor runs the five-step process of spec.md §4.1.
type Extractor struct {
	fetcher      imagefetch.Fetcher
	moderator    Moderator
	ocr          OCREngine
	retryPolicy  resilience.RetryPolicy
}

// NewExtractor wires the collaborators needed to run Extract.
func NewExtractor(fetcher imagefetch.Fetcher, moderator Moderator, ocr OCREngine) *Extractor {
	return &Extractor{
		fetcher:     fetcher,
		moderator:   moderator,
		ocr:         ocr,
		retryPolicy: resilience.DefaultRetryPolicy(3),
	}
}

// Extract resolves imageRef to a FeatureEnvelope, or fails with
// InvalidCardImage, InappropriateContent, ExtractionFailed, or
// SourceUnavailable per spec.md §4.1.
func (e *Extractor) Extract(ctx context.Context, imageRef string) (*cardmodel.FeatureEnvelope, error) {
	var raw []byte
	err := resilience.Do(ctx, e.retryPolicy, func(ctx context.Context) error {
		data, ferr := e.fetcher.Fetch(ctx, imageRef)
		if ferr != nil {
			return fmt.Errorf("fetch: %w", ferr)
		}
		raw = data
		return nil
	})
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindSourceUnavailable, "could not fetch image", err)
	}

	labels, err := e.moderator.Classify(ctx, raw)
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindSourceUnavailable, "moderation classifier unavailable", err)
	}
	for _, l := range labels {
		if blockedLabels[l.Name] && l.Confidence > moderationThreshold {
			return nil, cardmodel.NewError(cardmodel.KindInappropriate, "inappropriate content; cannot be uploaded", nil)
		}
	}

	hasCard, err := e.moderator.DetectCardEvidence(ctx, raw)
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindSourceUnavailable, "card-type classifier unavailable", err)
	}
	if !hasCard {
		return nil, cardmodel.NewError(cardmodel.KindInvalidCardImage, "no plausible trading-card evidence", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindExtractionFailed, "could not decode image", err)
	}

	cropped, box := localizeCard(img)

	blocks, err := e.ocr.DetectText(ctx, raw)
	if err != nil {
		return nil, cardmodel.NewError(cardmodel.KindSourceUnavailable, "ocr engine unavailable", err)
	}

	envelope := &cardmodel.FeatureEnvelope{
		OCRBlocks:           blocks,
		HolographicVariance: holographicVariance(cropped),
		Border:              borderMetrics(box),
		Font:                fontMetrics(blocks),
		Quality:             imageQuality(img),
		Image: cardmodel.ImageMeta{
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
			Format: format,
		},
	}
	return envelope, nil
}

// localizeCard finds the card's bounding box via a Sobel-style gradient
// search, validating the card width/height ratio falls in [0.5, 1.0]
// with 5% padding; falling back to the full image when localization
// does not find a plausible box (spec.md §4.1 step 4).
func localizeCard(img image.Image) (image.Image, cardmodel.BoundingBox) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img, cardmodel.BoundingBox{Width: 1, Height: 1}
	}

	gx0, gy0, gx1, gy1 := sobelBoundingBox(img)
	boxW := float64(gx1-gx0) / float64(w)
	boxH := float64(gy1-gy0) / float64(h)
	ratio := float64(gx1-gx0) / float64(gy1-gy0)

	if boxW <= 0 || boxH <= 0 || ratio < 0.5 || ratio > 1.0 {
		return img, cardmodel.BoundingBox{Top: 0, Left: 0, Width: 1, Height: 1}
	}

	padX := int(float64(gx1-gx0) * 0.05)
	padY := int(float64(gy1-gy0) * 0.05)
	rect := image.Rect(
		maxInt(0, gx0-padX), maxInt(0, gy0-padY),
		minInt(w, gx1+padX), minInt(h, gy1+padY),
	)
	cropped := imaging.Crop(img, rect)

	return cropped, cardmodel.BoundingBox{
		Top:    float64(rect.Min.Y) / float64(h),
		Left:   float64(rect.Min.X) / float64(w),
		Width:  float64(rect.Dx()) / float64(w),
		Height: float64(rect.Dy()) / float64(h),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// imageQuality computes blur, glare, and brightness from the teacher's
// analyzeImageQuality sampling approach, extended with a Sobel-based
// sharpness estimate for the blur score.
func imageQuality(img image.Image) cardmodel.ImageQuality {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	var totalBrightness, overexposed float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 4 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 4 {
			r, _, _, _ := gray.At(x, y).RGBA()
			v := float64(r >> 8)
			totalBrightness += v
			if v > 250 {
				overexposed++
			}
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	brightness := totalBrightness / float64(count) / 255.0
	glare := overexposed/float64(count) > 0.05

	return cardmodel.ImageQuality{
		BlurScore:     sobelSharpness(gray),
		GlareDetected: glare,
		Brightness:    brightness,
	}
}

func holographicVariance(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	var values []float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 3 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 3 {
			r, _, _, _ := gray.At(x, y).RGBA()
			values = append(values, float64(r>>8))
		}
	}
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	normalized := variance / (128.0 * 128.0)
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}

func borderMetrics(box cardmodel.BoundingBox) cardmodel.BorderMetrics {
	top := box.Top
	left := box.Left
	bottom := 1 - (box.Top + box.Height)
	right := 1 - (box.Left + box.Width)
	if bottom < 0 {
		bottom = 0
	}
	if right < 0 {
		right = 0
	}

	maxSide := top
	for _, s := range []float64{bottom, left, right} {
		if s > maxSide {
			maxSide = s
		}
	}
	asymmetry := 0.0
	if maxSide > 0 {
		asymmetry = (absF(top-bottom) + absF(left-right)) / (2 * maxSide)
	}
	symmetry := 1 - asymmetry
	if symmetry < 0 {
		symmetry = 0
	}

	return cardmodel.BorderMetrics{
		TopRatio:      top,
		BottomRatio:   bottom,
		LeftRatio:     left,
		RightRatio:    right,
		SymmetryScore: symmetry,
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func fontMetrics(blocks []cardmodel.OCRBlock) cardmodel.FontMetrics {
	if len(blocks) == 0 {
		return cardmodel.FontMetrics{}
	}

	kerning := make([]float64, 0, len(blocks))
	sizes := make([]float64, 0, len(blocks))
	var leftSum float64
	for _, b := range blocks {
		kerning = append(kerning, b.Box.Width/float64(maxInt(1, len(b.Text))))
		sizes = append(sizes, b.Box.Height)
		leftSum += b.Box.Left
	}
	meanLeft := leftSum / float64(len(blocks))

	var leftVariance float64
	for _, b := range blocks {
		d := b.Box.Left - meanLeft
		leftVariance += d * d
	}
	leftVariance /= float64(len(blocks))
	alignment := 1 - minF(1, leftVariance*20)

	return cardmodel.FontMetrics{
		KerningSamples:   kerning,
		Alignment:        alignment,
		FontSizeVariance: varianceOf(sizes),
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func varianceOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(values))
}
