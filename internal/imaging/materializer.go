// Package imaging turns a selected image into a data URI, first by rendering
// it from bytes the page already holds and otherwise by downloading it.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/aashari/go-selection-relay/internal/logger"
)

var (
	// ErrCrossOrigin means the image may not be read back from the page
	ErrCrossOrigin = errors.New("imaging: cross-origin image cannot be rendered")
	// ErrNotLoaded means the page has no bytes for a same-origin image
	ErrNotLoaded = errors.New("imaging: image is not loaded")
)

// Resources is what the page exposes to the renderer
type Resources interface {
	Origin() string
	Resource(src string) ([]byte, bool)
}

// Materializer renders or fetches images
type Materializer struct {
	fetcher *Fetcher
}

// NewMaterializer creates a materializer falling back to fetcher
func NewMaterializer(fetcher *Fetcher) *Materializer {
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0)
	}
	return &Materializer{fetcher: fetcher}
}

// Materialize returns a data URI for src
func (m *Materializer) Materialize(ctx context.Context, res Resources, src string) (string, error) {
	ctx = logger.WithComponent(ctx, "Imaging")

	dataURI, renderErr := Render(res, src)
	if renderErr == nil {
		return dataURI, nil
	}

	logger.DebugCtx(ctx, "Rendering image failed, fetching it instead",
		"request_url", src,
		"error", renderErr,
	)

	if strings.HasPrefix(src, "data:") {
		return "", renderErr
	}

	dataURI, fetchErr := m.fetcher.Fetch(ctx, src)
	if fetchErr != nil {
		return "", fmt.Errorf("render: %w; fetch: %w", renderErr, fetchErr)
	}
	return dataURI, nil
}

// Render draws src onto an RGBA canvas of its natural size and encodes the
// canvas as a PNG data URI. Only bytes already available without network
// access are used.
func Render(res Resources, src string) (string, error) {
	data, err := readLocal(res, src)
	if err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Copy(canvas, image.Point{}, img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", fmt.Errorf("failed to encode canvas: %w", err)
	}
	return encodeDataURI("image/png", buf.Bytes()), nil
}

func readLocal(res Resources, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURI(src)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	if u.Scheme+"://"+u.Host != res.Origin() {
		return nil, ErrCrossOrigin
	}

	data, ok := res.Resource(src)
	if !ok {
		return nil, ErrNotLoaded
	}
	return data, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data uri: %w", err)
		}
		return data, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data uri: %w", err)
	}
	return []byte(decoded), nil
}
