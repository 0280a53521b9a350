package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashari/go-selection-relay/internal/page"
)

type fakeResources struct {
	origin string
	loaded map[string][]byte
}

func (f fakeResources) Origin() string { return f.origin }

func (f fakeResources) Resource(src string) ([]byte, bool) {
	data, ok := f.loaded[src]
	return data, ok
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeResult(t *testing.T, dataURI string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(dataURI, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestRender_SameOriginResource(t *testing.T) {
	res := fakeResources{
		origin: "https://quiz.example.com",
		loaded: map[string][]byte{"https://quiz.example.com/a.png": testPNG(t, 4, 3)},
	}

	dataURI, err := Render(res, "https://quiz.example.com/a.png")
	require.NoError(t, err)

	img := decodeResult(t, dataURI)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestRender_DataURI(t *testing.T) {
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 2, 2))

	dataURI, err := Render(fakeResources{origin: "https://quiz.example.com"}, src)
	require.NoError(t, err)
	assert.Equal(t, 2, decodeResult(t, dataURI).Bounds().Dx())
}

func TestRender_Errors(t *testing.T) {
	res := fakeResources{
		origin: "https://quiz.example.com",
		loaded: map[string][]byte{"https://quiz.example.com/broken.png": []byte("not an image")},
	}

	_, err := Render(res, "https://cdn.example.net/a.png")
	assert.ErrorIs(t, err, ErrCrossOrigin)

	_, err = Render(res, "https://quiz.example.com/missing.png")
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = Render(res, "https://quiz.example.com/broken.png")
	assert.Error(t, err)

	_, err = Render(res, "data:image/png;base64")
	assert.Error(t, err)
}

func TestMaterialize_FallsBackToFetch(t *testing.T) {
	raw := testPNG(t, 2, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	m := NewMaterializer(NewFetcher(server.Client(), 0))
	dataURI, err := m.Materialize(context.Background(), fakeResources{origin: "https://quiz.example.com"}, server.URL+"/pic.png")

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(raw), dataURI)
}

func TestMaterialize_PageImageFromDisk(t *testing.T) {
	doc, err := page.Parse(strings.NewReader(`<html><body><p id="q"><img src="img/q.png">Which chart?</p></body></html>`), "https://localhost/quiz.html")
	require.NoError(t, err)
	n, err := doc.LoadResources(fstest.MapFS{"img/q.png": {Data: testPNG(t, 5, 4)}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	src, ok := doc.Select("#q").Image()
	require.True(t, ok)

	// any network fetch fails the test
	failing := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("unexpected network fetch")
		return nil, nil
	})}
	dataURI, err := NewMaterializer(NewFetcher(failing, 0)).Materialize(context.Background(), doc, src)
	require.NoError(t, err)
	assert.Equal(t, 5, decodeResult(t, dataURI).Bounds().Dx())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestMaterialize_BothFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	m := NewMaterializer(NewFetcher(server.Client(), 0))
	_, err := m.Materialize(context.Background(), fakeResources{origin: "https://quiz.example.com"}, server.URL+"/pic.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrossOrigin)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFetcher_Validation(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		maxSize     int64
		wantErr     string
	}{
		{name: "wrong content type", contentType: "text/html", body: []byte("<html>"), wantErr: "invalid content type"},
		{name: "too large", contentType: "image/png", body: make([]byte, 11), maxSize: 10, wantErr: "exceeds limit"},
		{name: "exactly at limit", contentType: "image/jpeg; charset=binary", body: make([]byte, 10), maxSize: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			dataURI, err := NewFetcher(server.Client(), tt.maxSize).Fetch(context.Background(), server.URL)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(dataURI, "data:image/jpeg;base64,"))
		})
	}
}

func TestFetcher_SniffsGenericContentTypes(t *testing.T) {
	pngData := testPNG(t, 2, 2)

	tests := []struct {
		name        string
		contentType []string
		body        []byte
		wantPrefix  string
		wantErr     string
	}{
		{name: "octet-stream png", contentType: []string{"application/octet-stream"}, body: pngData, wantPrefix: "data:image/png;base64,"},
		{name: "missing header", contentType: nil, body: pngData, wantPrefix: "data:image/png;base64,"},
		{name: "octet-stream text", contentType: []string{"application/octet-stream"}, body: []byte("just some text"), wantErr: "invalid content type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// a nil value also stops net/http from sniffing one in
				w.Header()["Content-Type"] = tt.contentType
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			dataURI, err := NewFetcher(server.Client(), 0).Fetch(context.Background(), server.URL)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(dataURI, tt.wantPrefix), dataURI[:32])
			assert.Equal(t, base64.StdEncoding.EncodeToString(pngData), strings.TrimPrefix(dataURI, tt.wantPrefix))
		})
	}
}
