package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipbook/service/internal/storage"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func listAll(t *testing.T, s storage.Storage) []storage.Object {
	t.Helper()
	objs, err := s.List(context.Background(), "")
	require.NoError(t, err)
	return objs
}

// failingStore rejects every upload with a transient error.
type failingStore struct{ *storage.MemoryStorage }

func (f failingStore) Upload(context.Context, string, io.Reader, int64, string) error {
	return &storage.Error{Op: "upload", Kind: storage.KindTransient, Err: errors.New("connection reset")}
}

func TestService_RejectsBadExtensions(t *testing.T) {
	store := storage.NewMemoryStorage("bkt", "", 0)
	svc := NewService(store, Options{})

	for _, name := range []string{"a.gif", "a.txt", "jpg", "archive.png.zip", ""} {
		_, err := svc.Upload(context.Background(), name, "image/png", bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, ErrInvalidExtension, name)
	}
	assert.Empty(t, listAll(t, store))
}

func TestService_BucketNotConfigured(t *testing.T) {
	store := storage.NewMemoryStorage("", "", 0)
	svc := NewService(store, Options{})

	_, err := svc.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
	assert.Empty(t, listAll(t, store))
}

func TestService_ExtensionCheckedBeforeBucket(t *testing.T) {
	svc := NewService(storage.NewMemoryStorage("", "", 0), Options{})

	_, err := svc.Upload(context.Background(), "a.bmp", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidExtension)
}

func TestService_UploadPNG(t *testing.T) {
	store := storage.NewMemoryStorage("bkt", "", 0)
	svc := NewService(store, Options{})
	data := pngBytes(t)

	res, err := svc.Upload(context.Background(), "photo.PNG", "image/png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Regexp(t, uuidPattern, res.ID)
	assert.Contains(t, res.ImageURL, res.ID)
	assert.Equal(t, "https://bkt.s3.amazonaws.com/images/"+res.ID+".png", res.ImageURL)

	objs := listAll(t, store)
	require.Len(t, objs, 1)
	assert.Equal(t, "images/"+res.ID+".png", objs[0].Key)
	assert.Equal(t, "image/png", objs[0].ContentType)
	assert.Equal(t, int64(len(data)), objs[0].Size)
}

func TestService_LegacyKeys(t *testing.T) {
	store := storage.NewMemoryStorage("bkt", "", 0)
	svc := NewService(store, Options{LegacyJPGKeys: true})

	res, err := svc.Upload(context.Background(), "photo.png", "image/png", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "images/"+res.ID+".jpg", res.Key)
}

func TestService_ContentTypeFallback(t *testing.T) {
	store := storage.NewMemoryStorage("bkt", "", 0)
	svc := NewService(store, Options{})

	_, err := svc.Upload(context.Background(), "photo.png", "", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", listAll(t, store)[0].ContentType)
}

func TestService_StoreFailure(t *testing.T) {
	svc := NewService(failingStore{storage.NewMemoryStorage("bkt", "", 0)}, Options{})

	_, err := svc.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, storage.KindTransient, storage.KindOf(err))
}

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_Upload(t *testing.T) {
	store := storage.NewMemoryStorage("bkt", "", 0)
	h := NewHandler(NewService(store, Options{}), 1<<20)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "file", "photo.PNG", "image/png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Regexp(t, uuidPattern, body["id"])
	assert.Contains(t, body["image_url"], body["id"])
	assert.Len(t, body, 2)
	assert.Len(t, listAll(t, store), 1)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		field    string
		filename string
		status   int
		detail   string
	}{
		{"bad extension", "bkt", "file", "notes.txt", http.StatusBadRequest, "Only .jpg, .jpeg, .png files allowed"},
		{"missing file", "bkt", "", "", http.StatusBadRequest, "file is required"},
		{"no bucket", "", "file", "a.jpg", http.StatusInternalServerError, "Bucket name not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage(tt.bucket, "", 0)
			h := NewHandler(NewService(store, Options{}), 0)

			rec := httptest.NewRecorder()
			h.Upload(rec, multipartRequest(t, tt.field, tt.filename, "application/octet-stream", []byte("data")))

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.detail, body["detail"])
			assert.Empty(t, listAll(t, store))
		})
	}
}

func TestHandler_StoreFailureNamesKind(t *testing.T) {
	h := NewHandler(NewService(failingStore{storage.NewMemoryStorage("bkt", "", 0)}, Options{}), 0)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartRequest(t, "file", "a.jpg", "image/jpeg", []byte("data")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"failed to store image","kind":"transient_io"}`, rec.Body.String())
}
