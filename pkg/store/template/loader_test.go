package template

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(params.Bucket), aws.ToString(params.Key))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func TestLoad_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slip.xml")
	require.NoError(t, os.WriteFile(path, []byte("<ccslip/>"), 0o600))

	data, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<ccslip/>", string(data))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_S3(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, "templates", "slips/ccslip.xml").Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("<ccslip/>")),
	}, nil)

	data, err := NewLoader(client).Load(context.Background(), "s3://templates/slips/ccslip.xml")
	require.NoError(t, err)
	assert.Equal(t, "<ccslip/>", string(data))
	client.AssertExpectations(t)
}

func TestLoad_S3Error(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, "templates", "ccslip.xml").Return(nil, errors.New("access denied"))

	_, err := NewLoader(client).Load(context.Background(), "s3://templates/ccslip.xml")
	assert.ErrorContains(t, err, "access denied")
}

func TestLoad_S3WithoutClient(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), "s3://templates/ccslip.xml")
	assert.ErrorIs(t, err, ErrNoS3Client)
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := parseS3URI("s3://bucket/a/b.xml")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "a/b.xml", key)

	for _, uri := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3URI(uri)
		assert.Error(t, err, uri)
	}
}

func TestIsS3URI(t *testing.T) {
	assert.True(t, IsS3URI("s3://bucket/key"))
	assert.False(t, IsS3URI("config/credit_card_slip_template.xml"))
}
