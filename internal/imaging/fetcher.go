package imaging

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// DefaultMaxSize is the largest image the fetcher accepts
const DefaultMaxSize = 20 * 1024 * 1024 // 20MB limit

// Fetcher downloads an image and encodes it as a data URI
type Fetcher struct {
	httpClient *http.Client
	maxSize    int64
}

// NewFetcher creates a fetcher. A nil client gets a 30s timeout client and a
// non-positive maxSize falls back to DefaultMaxSize.
func NewFetcher(client *http.Client, maxSize int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Fetcher{httpClient: client, maxSize: maxSize}
}

// Fetch downloads imageURL and returns data:<content-type>;base64,...
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (string, error) {
	logger.LogMultipleData(ctx, logger.LevelDebug, "Downloading image", map[string]any{
		"request_url": imageURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(utils.HeaderUserAgent, utils.ServiceUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	// Read one byte past the limit to tell "exactly max" from "too large"
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("image size exceeds limit of %d bytes", f.maxSize)
	}

	contentType := resp.Header.Get(utils.HeaderContentType)
	mediaType, err := imageMediaType(contentType, data)
	if err != nil {
		return "", err
	}
	dataURI := encodeDataURI(mediaType, data)

	logger.LogMultipleData(ctx, logger.LevelDebug, "Image downloaded and converted", map[string]any{
		"request_url":         imageURL,
		"response_type":       mediaType,
		"response_size_bytes": len(data),
		"data_url":            dataURI,
	})
	return dataURI, nil
}

var validImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/jpg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

func isValidImageType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, validType := range validImageTypes {
		if strings.HasPrefix(contentType, validType) {
			return true
		}
	}
	return false
}

// imageMediaType trusts a declared image type and otherwise sniffs the bytes,
// so images served as application/octet-stream or without a header still pass
func imageMediaType(contentType string, data []byte) (string, error) {
	if isValidImageType(contentType) {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])), nil
	}

	detected := mimetype.Detect(data)
	if strings.HasPrefix(detected.String(), "image/") {
		return strings.SplitN(detected.String(), ";", 2)[0], nil
	}
	return "", fmt.Errorf("invalid content type: %q (detected %s)", contentType, detected.String())
}

func encodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
