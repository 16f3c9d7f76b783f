package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/iconstack/pkg/cache"
	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/ico"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(config.Default(), c, log.New(io.Discard))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := range m.Pix {
		m.Pix[i] = 0xff
	}
	m.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pngHeader returns the signature and IHDR chunk of an 8-bit gray PNG with
// the given dimensions and no pixel data.
func pngHeader(w, h int) []byte {
	var ihdr [17]byte
	copy(ihdr[:4], "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(w))
	binary.BigEndian.PutUint32(ihdr[8:12], uint32(h))
	ihdr[12] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(ihdr[:])
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr[:]))
	return buf.Bytes()
}

func uploadIcon(t *testing.T, url string, img []byte, selections string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if img != nil {
		fw, err := mw.CreateFormFile("image", "logo.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(img)
	}
	if selections != "" {
		if err := mw.WriteField("selections", selections); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	resp, err := http.Post(url+"/v1/icon", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestDefaults(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/defaults")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body defaultsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Config != config.Default() {
		t.Errorf("config = %+v", body.Config)
	}
	if len(body.Selections) != 4 || body.Selections[0].Size != 32 {
		t.Errorf("selections = %+v", body.Selections)
	}
	if len(body.Boxes) != 2 || body.Boxes[1].Name != "box-1" {
		t.Fatalf("boxes = %+v", body.Boxes)
	}
	if got := body.Boxes[1].Controls[0]; got.ToggleName != "size-2-toggle" || got.FrameName != "toggle-frame-2" {
		t.Errorf("control = %+v", got)
	}
}

func TestPlan(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantSizes  []int
		wantCode   errors.Code
	}{
		{
			name:       "scenario",
			body:       `{"source":"Base","selections":[{"enabled":true,"size":256},{"enabled":false,"size":128},{"enabled":true,"size":64},{"enabled":true,"size":32}]}`,
			wantStatus: http.StatusOK,
			wantSizes:  []int{256, 64, 32},
		},
		{
			name:       "defaults",
			body:       `{}`,
			wantStatus: http.StatusOK,
			wantSizes:  []int{256, 128, 64, 32},
		},
		{
			name:       "all disabled",
			body:       `{"selections":[{"size":32},{"size":64},{"size":128},{"size":256}]}`,
			wantStatus: http.StatusOK,
			wantSizes:  []int{},
		},
		{
			name:       "out of bounds",
			body:       `{"selections":[{"enabled":true,"size":8},{"size":64},{"size":128},{"size":256}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidSize,
		},
		{
			name:       "wrong count",
			body:       `{"selections":[{"enabled":true,"size":64}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidInput,
		},
		{
			name:       "malformed",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/plan", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var e errorResponse
				if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
					t.Fatal(err)
				}
				if e.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", e.Code, tt.wantCode)
				}
				return
			}

			var p planResponse
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(p.Sizes, tt.wantSizes) {
				t.Errorf("sizes = %v, want %v", p.Sizes, tt.wantSizes)
			}
			for k, op := range p.Ops {
				if op.InsertAt != -k || op.DuplicateFrom != "Base" {
					t.Errorf("ops[%d] = %+v", k, op)
				}
			}
		})
	}
}

func TestIcon(t *testing.T) {
	ts := newTestServer(t)
	img := pngBytes(t, 300)
	sel := `[{"enabled":true,"size":256},{"enabled":false,"size":128},{"enabled":true,"size":64},{"enabled":true,"size":32}]`

	resp := uploadIcon(t, ts.URL, img, sel)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/x-icon" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := resp.Header.Get("X-Icon-Sizes"); got != "256,64,32" {
		t.Errorf("X-Icon-Sizes = %q", got)
	}
	if got := resp.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("X-Cache = %q, want miss", got)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := ico.ReadDirectory(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadDirectory() error = %v", err)
	}
	if len(entries) != 3 || entries[0].Width != 256 || entries[2].Width != 32 {
		t.Errorf("entries = %+v", entries)
	}

	again := uploadIcon(t, ts.URL, img, sel)
	if got := again.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
}

func TestIconNoSizes(t *testing.T) {
	ts := newTestServer(t)
	sel := `[{"size":32},{"size":64},{"size":128},{"size":256}]`

	resp := uploadIcon(t, ts.URL, pngBytes(t, 64), sel)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestIconErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		img        []byte
		sel        string
		wantStatus int
	}{
		{"missing image", nil, "", http.StatusBadRequest},
		{"not an image", []byte("hello"), "", http.StatusUnsupportedMediaType},
		{"bad selections", pngBytes(t, 32), "[", http.StatusBadRequest},
		{"oversized dimensions", pngHeader(6000, 6000), "", http.StatusRequestEntityTooLarge},
		{"oversized height", pngHeader(64, maxSourceDimension+1), "", http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := uploadIcon(t, ts.URL, tt.img, tt.sel)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidSize, http.StatusBadRequest},
		{errors.ErrCodePrecondition, http.StatusUnprocessableEntity},
		{errors.ErrCodeLayerNotFound, http.StatusNotFound},
		{errors.ErrCodeInvalidFormat, http.StatusUnsupportedMediaType},
		{errors.ErrCodeImageTooLarge, http.StatusRequestEntityTooLarge},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errors.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
