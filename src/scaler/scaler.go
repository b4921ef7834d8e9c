// Package scaler resizes artwork images down to a requested width while
// preserving their aspect ratio. Scaling is CPU bound so a fixed pool of
// workers is used instead of spawning a goroutine per request.
package scaler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"runtime"

	// Standard library image formats which may be decoded.
	_ "image/gif"
	_ "image/png"

	// Additional image formats from the x repository.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when one is trying to interact with a stopped
// scaler.
var ErrCancelled = errors.New("scale operation on a stopped scaler")

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . ImageScaler

// ImageScaler is what consumers of the scaler depend on. It is implemented
// by Scaler.
type ImageScaler interface {
	// Scale converts the image read from img to one with width toWidth
	// in pixels, preserving the aspect ratio.
	Scale(ctx context.Context, img io.Reader, toWidth int) ([]byte, error)
}

// job is a single scaling instruction for a worker. The outcome is sent
// back on result.
type job struct {
	src     io.Reader
	toWidth int
	result  chan jobResult
}

type jobResult struct {
	img []byte
	err error
}

// Scaler distributes scaling work among a pool of workers. Create one with
// New and dispose of it with Cancel.
type Scaler struct {
	cancelContext context.CancelFunc
	done          <-chan struct{}

	jobs chan job
}

// New returns a new scaler, ready for use. Its workers stop when ctx is
// cancelled or when Cancel is called.
func New(ctx context.Context) *Scaler {
	ctx, cancel := context.WithCancel(ctx)

	s := &Scaler{
		cancelContext: cancel,
		done:          ctx.Done(),
		jobs:          make(chan job),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < runtime.NumCPU(); i++ {
		g.Go(func() error {
			return s.worker(gctx)
		})
	}

	return s
}

// Scale implements ImageScaler by handing the work to one of the pool
// workers and waiting for its result. Scaling on a cancelled scaler
// returns ErrCancelled.
func (s *Scaler) Scale(
	ctx context.Context,
	img io.Reader,
	toWidth int,
) ([]byte, error) {
	scaleJob := job{
		src:     img,
		toWidth: toWidth,
		result:  make(chan jobResult),
	}

	select {
	case s.jobs <- scaleJob:
	case <-s.done:
		return nil, ErrCancelled
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting to submit a scale job: %w", ctx.Err())
	}

	res := <-scaleJob.result
	if res.err != nil {
		return nil, res.err
	}

	return res.img, nil
}

// Cancel stops the scaler and all of its workers. The scaler may not be
// used after it was cancelled.
func (s *Scaler) Cancel() {
	s.cancelContext()
}

func (s *Scaler) worker(ctx context.Context) error {
	for {
		var scaleJob job

		select {
		case <-ctx.Done():
			return nil
		case scaleJob = <-s.jobs:
		}

		// A job may have won the select against a cancellation which already
		// happened. It must not be worked on, its submitter gets ErrCancelled.
		if ctx.Err() != nil {
			scaleJob.result <- jobResult{err: ErrCancelled}
			continue
		}

		img, err := scaleImage(scaleJob.src, scaleJob.toWidth)
		scaleJob.result <- jobResult{
			img: img,
			err: err,
		}
	}
}

func scaleImage(imgReader io.Reader, toWidth int) ([]byte, error) {
	img, _, err := image.Decode(imgReader)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	imgWidth := bounds.Max.X - bounds.Min.X
	imgHeight := bounds.Max.Y - bounds.Min.Y

	toHeight := toWidth
	if imgWidth != imgHeight {
		toHeight = int((float32(imgHeight) / float32(imgWidth)) * float32(toWidth))
	}

	dst := image.NewRGBA(image.Rect(0, 0, toWidth, toHeight))
	draw.CatmullRom.Scale(
		dst,
		dst.Bounds(),
		img,
		img.Bounds(),
		draw.Over,
		nil,
	)

	var scaled bytes.Buffer
	if err := jpeg.Encode(&scaled, dst, nil); err != nil {
		return nil, fmt.Errorf("encoding scaled image: %w", err)
	}

	return scaled.Bytes(), nil
}
