package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir(), "/media/")
	require.NoError(t, err)

	info, err := store.Put(ctx, "actes_deces/abc.pdf", strings.NewReader("%PDF-1.4"), PutOptions{ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)

	got, body, err := store.Open(ctx, "actes_deces/abc.pdf")
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))
	assert.Equal(t, "application/pdf", got.ContentType)

	url, err := store.URL(ctx, "actes_deces/abc.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "/media/actes_deces/abc.pdf", url)

	deleted, err := store.Delete(ctx, "actes_deces/abc.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = store.Open(ctx, "actes_deces/abc.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = store.Delete(ctx, "actes_deces/abc.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store, err := NewFS(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "a/../../b"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory("/media")

	_, err := store.Put(ctx, "actes_deces/x.png", strings.NewReader("png"), PutOptions{ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"actes_deces/x.png"}, store.Keys())

	_, body, err := store.Open(ctx, "actes_deces/x.png")
	require.NoError(t, err)
	raw, _ := io.ReadAll(body)
	assert.Equal(t, "png", string(raw))

	deleted, err := store.Delete(ctx, "actes_deces/x.png")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, store.Keys())
}

func TestS3StorePresignsGetURL(t *testing.T) {
	store, err := NewS3(context.Background(), S3Config{
		Bucket:          "victims",
		Region:          "eu-west-3",
		Endpoint:        "http://minio.local:9000",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	require.NoError(t, err)

	url, err := store.URL(context.Background(), "actes_deces/abc.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://minio.local:9000/victims/actes_deces/abc.pdf?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=300")
}
