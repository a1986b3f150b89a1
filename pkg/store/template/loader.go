package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const (
	DefaultPath = "config/credit_card_slip_template.xml"
	s3Scheme    = "s3://"
)

var ErrNoS3Client = errors.New("template source is an s3 uri but no s3 client is configured")

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads the slip template from a local path or an s3://bucket/key
// uri.
type Loader struct {
	s3 ObjectGetter
}

func NewLoader(s3Client ObjectGetter) *Loader {
	return &Loader{s3: s3Client}
}

func IsS3URI(source string) bool {
	return strings.HasPrefix(source, s3Scheme)
}

func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		source = DefaultPath
	}
	zerolog.Ctx(ctx).Debug().Str("source", source).Msg("loading slip template")

	if !IsS3URI(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", source, err)
		}
		return data, nil
	}

	bucket, key, err := parseS3URI(source)
	if err != nil {
		return nil, err
	}
	if l.s3 == nil {
		return nil, ErrNoS3Client
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", source, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", source, err)
	}
	return data, nil
}

func parseS3URI(uri string) (string, string, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q, expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}
