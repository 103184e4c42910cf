package http

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/imagekit/internal/config"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/usecase"
)

func newTestEngine(t *testing.T) *ginext.Engine {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Storage.BasePath = root
	cfg.Storage.PublicPath = filepath.Join(root, "public")
	cfg.Storage.Disks = []config.DiskConfig{
		{Name: "public", Driver: "local", Root: filepath.Join(root, "public"), URL: "/storage"},
	}
	cfg.ImageKit.MultiSizeDimensions = map[string]config.DimensionsConfig{
		"small": {Width: 100, Height: 100},
	}

	st, err := storage.New(&cfg.Storage, cfg.ImageKit.Disk)
	require.NoError(t, err)
	kit, err := usecase.New(cfg.ImageKit, cfg.Storage, st)
	require.NoError(t, err)

	engine := ginext.New("test")
	NewImageHandler(kit, 5).RegisterRoutes(engine)
	return engine
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 200, B: 90, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, contents := range files {
		for i, data := range contents {
			fw, err := mw.CreateFormFile(field, "upload"+string(rune('a'+i))+".jpg")
			require.NoError(t, err)
			_, err = fw.Write(data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(engine *ginext.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func saveImage(t *testing.T, engine *ginext.Engine, fields map[string]string) map[string]any {
	t.Helper()
	req := multipartRequest(t, "/images", fields, map[string][][]byte{"image": {jpegBytes(t, 400, 200)}})
	rec := serve(engine, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON(t, rec)
}

func TestSaveImageReturnsProjection(t *testing.T) {
	engine := newTestEngine(t)

	body := saveImage(t, engine, map[string]string{
		"name":        "Summer Trip",
		"width":       "200",
		"return_keys": "name,full_path,width,height",
	})

	image, ok := body["image"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "summer-trip.jpg", image["name"])
	assert.Equal(t, "uploads/images/summer-trip.jpg", image["full_path"])
	assert.Equal(t, float64(200), image["width"])
	assert.Equal(t, float64(100), image["height"])
}

func TestSaveImageScalarResult(t *testing.T) {
	engine := newTestEngine(t)

	body := saveImage(t, engine, map[string]string{"name": "cover"})
	assert.Equal(t, "cover.jpg", body["image"])
}

func TestSaveImageRejectsBadInput(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"traversal path", map[string]string{"path": "../escape"}},
		{"unknown disk", map[string]string{"disk": "nope"}},
		{"unknown size", map[string]string{"sizes": "gigantic"}},
		{"quality out of range", map[string]string{"quality": "150"}},
		{"unknown return key", map[string]string{"return_keys": "colour"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := multipartRequest(t, "/images", tc.fields, map[string][][]byte{"image": {jpegBytes(t, 50, 50)}})
			rec := serve(engine, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decodeJSON(t, rec)["error"])
		})
	}
}

func TestSaveImageWithoutFile(t *testing.T) {
	engine := newTestEngine(t)

	rec := serve(engine, multipartRequest(t, "/images", map[string]string{"name": "x"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeJSON(t, rec)["error"])
}

func TestObjectEndpoints(t *testing.T) {
	engine := newTestEngine(t)
	saveImage(t, engine, map[string]string{"name": "cat"})
	q := url.Values{"path": {"uploads/images/cat.jpg"}}.Encode()

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/images/exists?"+q, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["exists"])

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/url?"+q, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/storage/uploads/images/cat.jpg", decodeJSON(t, rec)["url"])

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/raw?"+q+"&max_age=60", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")
	assert.Equal(t, []byte{0xFF, 0xD8}, rec.Body.Bytes()[:2])

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/download?"+q+"&name=kitty.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "kitty.jpg")

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/temporary-url?"+q+"&expiry_sec=60", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	missing := url.Values{"path": {"uploads/images/none.jpg"}}.Encode()
	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/raw?"+missing, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/images/exists", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteImage(t *testing.T) {
	engine := newTestEngine(t)
	saveImage(t, engine, map[string]string{"name": "dog", "sizes": "small"})

	del := func() *httptest.ResponseRecorder {
		payload := `{"name":"dog.jpg","path":"uploads/images","sizes":["small"]}`
		req := httptest.NewRequest(http.MethodDelete, "/images", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		return serve(engine, req)
	}

	rec := del()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["deleted"])

	rec = del()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeJSON(t, rec)["deleted"])
}

func TestSaveAndDeleteGallery(t *testing.T) {
	engine := newTestEngine(t)

	req := multipartRequest(t, "/galleries", map[string]string{
		"image_column": "photo",
		"fk_column":    "album_id",
		"fk_id":        "7",
		"alt_text":     "holiday",
		"path":         "albums/7",
	}, map[string][][]byte{"images": {jpegBytes(t, 60, 40), jpegBytes(t, 40, 60)}})
	rec := serve(engine, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["total"])
	images, ok := body["images"].([]any)
	require.True(t, ok)
	require.Len(t, images, 2)

	names := make([]string, 0, 2)
	for _, raw := range images {
		row, ok := raw.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(7), row["album_id"])
		assert.Equal(t, "holiday", row["alt"])
		name, ok := row["photo"].(string)
		require.True(t, ok)
		names = append(names, name)
	}

	payload, err := json.Marshal(map[string]any{"names": append(names, "missing.jpg"), "path": "albums/7"})
	require.NoError(t, err)
	delReq := httptest.NewRequest(http.MethodDelete, "/galleries", bytes.NewReader(payload))
	delReq.Header.Set("Content-Type", "application/json")
	rec = serve(engine, delReq)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeJSON(t, rec)
	assert.Equal(t, float64(2), out["deleted"])
	assert.Equal(t, float64(3), out["total"])
}
