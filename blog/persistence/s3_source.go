package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dfryer1193/portfolio/blog/domain"
)

var _ domain.PostSource = (*S3Source)(nil)

// S3API is the part of *s3.Client used by S3Source.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads posts stored as <prefix><slug>.md objects in a bucket.
type S3Source struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Source(client S3API, bucket string, prefix string) *S3Source {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// List returns the slugs of all markdown objects directly under the prefix.
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var slugs []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: listing s3://%s/%s failed: %w", s.bucket, s.prefix, err)
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") {
				continue
			}
			if slug, ok := slugFromFilename(name); ok {
				slugs = append(slugs, slug)
			}
		}
	}
	sort.Strings(slugs)

	return slugs, nil
}

// Read downloads the markdown object for slug.
func (s *S3Source) Read(ctx context.Context, slug string) ([]byte, error) {
	if !validSlug(slug) {
		return nil, fmt.Errorf("%q: %w", slug, domain.ErrPostNotFound)
	}

	key := s.prefix + slug + postExt
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, domain.ErrPostNotFound)
		}
		return nil, fmt.Errorf("s3: getting s3://%s/%s failed: %w", s.bucket, key, err)
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: reading s3://%s/%s failed: %w", s.bucket, key, err)
	}

	return content, nil
}
