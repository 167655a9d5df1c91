package images

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineStore(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG fake")

	ref, err := InlineStore{}.Save(ctx, png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"))
	assert.True(t, IsDataURI(ref))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ref, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, png, raw)

	url, err := InlineStore{}.Resolve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, url)

	_, err = InlineStore{}.Save(ctx, nil)
	assert.Error(t, err)
}

func TestIsDataURI(t *testing.T) {
	assert.False(t, IsDataURI(PlaceholderURL))
	assert.False(t, IsDataURI("s3://dreams/x.png"))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, KindInline, S3Config{})
	require.NoError(t, err)
	assert.IsType(t, InlineStore{}, s)

	s, err = New(ctx, KindS3, S3Config{Region: "us-east-1", Bucket: "dreams", AccessKey: "a", SecretKey: "b", BaseEndpoint: "http://127.0.0.1:9000"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = New(ctx, "gcs", S3Config{})
	assert.Error(t, err)
}
