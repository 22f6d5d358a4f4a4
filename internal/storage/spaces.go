package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// SpacesStorage uploads to an S3-compatible Space. Logical buckets become key
// prefixes inside the one configured Space.
type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	cfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if cdnURL == "" {
		cdnURL = fmt.Sprintf("https://%s.%s", bucket, strings.TrimPrefix(endpoint, "https://"))
	}
	return newSpaces(s3.New(sess), bucket, cdnURL), nil
}

func newSpaces(client s3iface.S3API, bucket, cdnURL string) *SpacesStorage {
	return &SpacesStorage{client: client, bucket: bucket, cdnURL: strings.TrimSuffix(cdnURL, "/")}
}

func (ss *SpacesStorage) Put(ctx context.Context, bucket, name, contentType string, body io.Reader) (string, error) {
	key, err := objectKey(bucket, name)
	if err != nil {
		return "", err
	}

	// PutObject needs a seekable body to sign the request.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return ss.cdnURL + "/" + key, nil
}
