package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	f.types[bucket+"/"+key] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestArchive_EnsureBucketAndStore(t *testing.T) {
	api := newFakeAPI()
	a := &Archive{api: api, bucket: "imports"}
	ctx := context.Background()

	require.NoError(t, a.EnsureBucket(ctx))
	require.NoError(t, a.EnsureBucket(ctx))
	assert.True(t, api.buckets["imports"])

	require.NoError(t, a.Store(ctx, "imports/abc/export.csv", []byte("Afvalstroomnummer;\n"), "text/csv"))
	assert.Equal(t, []byte("Afvalstroomnummer;\n"), api.objects["imports/imports/abc/export.csv"])
	assert.Equal(t, "text/csv", api.types["imports/imports/abc/export.csv"])
}

func TestArchive_StoreError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("access denied")
	a := &Archive{api: api, bucket: "imports"}

	err := a.Store(context.Background(), "k", []byte("x"), "text/csv")
	assert.ErrorContains(t, err, "store k")
}
