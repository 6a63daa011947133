package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/blockmat/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := "test-blockmat"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, fmt.Sprintf("test-%d/", time.Now().UnixNano()))

	require.NoError(t, store.Append(ctx, "A_Page0", []byte("1 2\n")))
	require.NoError(t, store.Append(ctx, "A_Page0", []byte("3 4\n")))

	blob, err := store.Open(ctx, "A_Page0")
	require.NoError(t, err)
	require.Equal(t, int64(8), blob.Size())

	buf := make([]byte, 8)
	n, err := blob.ReadAt(ctx, buf, 4)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "3 4\n", string(buf[:n]))
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "A_")
	require.NoError(t, err)
	assert.Equal(t, []string{"A_Page0"}, names)

	require.NoError(t, store.Delete(ctx, "A_Page0"))
	require.NoError(t, store.Delete(ctx, "A_Page0"))

	_, err = store.Open(ctx, "A_Page0")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
