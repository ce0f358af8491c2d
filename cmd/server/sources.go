package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/blog/persistence"
	"github.com/dfryer1193/portfolio/posts"
	"github.com/dfryer1193/portfolio/shared/config"
	gh "github.com/dfryer1193/portfolio/shared/github"
	"github.com/google/go-github/v75/github"
)

// newPostSource builds the PostSource selected by source.kind.
func newPostSource(ctx context.Context, cfg *config.Config) (domain.PostSource, error) {
	switch cfg.Source.Kind {
	case config.SourceEmbed:
		return persistence.NewFSSource(posts.FS, "."), nil
	case config.SourceDir:
		return persistence.NewFSSource(os.DirFS(cfg.Source.Dir), "."), nil
	case config.SourceGithub:
		client := github.NewClient(nil)
		if cfg.Github.Token != "" {
			client = client.WithAuthToken(cfg.Github.Token)
		}
		return gh.NewGithubPostSource(client, cfg.Github.Owner, cfg.Github.Repo, cfg.Github.Dir, cfg.Github.Ref), nil
	case config.SourceS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
				o.UsePathStyle = true
			}
		})
		return persistence.NewS3Source(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
