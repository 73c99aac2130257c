package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipbook/service/internal/upload"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BUCKET_NAME", "cli-bucket")
	t.Setenv("STORAGE_PUBLIC_BASE", "")
	t.Setenv("OTEL_TRACING_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (map[string]string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	var body map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, nil
}

func TestGenerateCommand_NoImages(t *testing.T) {
	memoryEnv(t)

	body, err := run(t, "generate-gif")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"message": "No images found"}, body)
}

func TestUploadCommand(t *testing.T) {
	memoryEnv(t)

	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 3))))
	require.NoError(t, f.Close())

	body, err := run(t, "upload", path)
	require.NoError(t, err)
	assert.Regexp(t, `^https://cli-bucket\.s3\.amazonaws\.com/images/[0-9a-f-]{36}\.png$`, body["image_url"])
}

func TestUploadCommand_RejectsExtension(t *testing.T) {
	memoryEnv(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o600))

	_, err := run(t, "upload", path)
	assert.ErrorIs(t, err, upload.ErrInvalidExtension)
}
