package persistence

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dfryer1193/portfolio/blog/domain"
)

type mockS3 struct {
	pages     [][]string
	objects   map[string]string
	listCalls []*s3.ListObjectsV2Input
	getErr    error
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.listCalls = append(m.listCalls, params)

	page := 0
	if params.ContinuationToken != nil {
		page = 1
	}

	var contents []types.Object
	for _, key := range m.pages[page] {
		contents = append(contents, types.Object{Key: aws.String(key)})
	}

	out := &s3.ListObjectsV2Output{
		Contents:    contents,
		IsTruncated: aws.Bool(page+1 < len(m.pages)),
	}
	if page+1 < len(m.pages) {
		out.NextContinuationToken = aws.String("page-2")
	}
	return out, nil
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	body, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestS3Source_List(t *testing.T) {
	client := &mockS3{
		pages: [][]string{
			{"posts/b-post.md", "posts/images/cover.png", "posts/nested/c.md"},
			{"posts/a-post.md", "posts/readme.txt"},
		},
	}
	src := NewS3Source(client, "bucket", "posts")

	slugs, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"a-post", "b-post"}
	if strings.Join(slugs, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", slugs, want)
	}

	if len(client.listCalls) != 2 {
		t.Fatalf("ListObjectsV2 called %d times, want 2", len(client.listCalls))
	}
	if got := aws.ToString(client.listCalls[0].Prefix); got != "posts/" {
		t.Errorf("Prefix = %q, want %q", got, "posts/")
	}
	if got := aws.ToString(client.listCalls[0].Bucket); got != "bucket" {
		t.Errorf("Bucket = %q, want %q", got, "bucket")
	}
}

func TestS3Source_Read(t *testing.T) {
	client := &mockS3{
		objects: map[string]string{"posts/hello.md": "hello body"},
	}
	src := NewS3Source(client, "bucket", "posts/")

	content, err := src.Read(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(content) != "hello body" {
		t.Errorf("Read() = %q, want %q", content, "hello body")
	}

	_, err = src.Read(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrPostNotFound", err)
	}

	_, err = src.Read(context.Background(), "../secrets")
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("Read(traversal) error = %v, want ErrPostNotFound", err)
	}
}

func TestS3Source_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	src := NewS3Source(&mockS3{getErr: boom}, "bucket", "")

	_, err := src.Read(context.Background(), "hello")
	if !errors.Is(err, boom) {
		t.Errorf("Read() error = %v, want %v", err, boom)
	}
	if errors.Is(err, domain.ErrPostNotFound) {
		t.Error("transport errors must not be reported as not found")
	}
}
