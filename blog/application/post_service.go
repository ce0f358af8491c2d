package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrorPolicy decides what GetPosts does when a single post cannot be built.
type ErrorPolicy int

const (
	// FailFast aborts the listing on the first error and returns no posts.
	FailFast ErrorPolicy = iota
	// SkipInvalid drops malformed posts with a warning. Source errors still abort.
	SkipInvalid
)

// RenderCache stores rendered HTML keyed by a hash of the markdown body.
type RenderCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, html string) error
}

type PostService struct {
	source   domain.PostSource
	markdown MarkdownRenderer
	cache    RenderCache

	policy         ErrorPolicy
	maxConcurrency int
}

// Option configures a PostService.
type Option func(*PostService)

// WithRenderCache memoizes rendered bodies. Cache failures are logged, never returned.
func WithRenderCache(cache RenderCache) Option {
	return func(s *PostService) {
		s.cache = cache
	}
}

func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(s *PostService) {
		s.policy = policy
	}
}

// WithMaxConcurrency bounds the number of posts built at once by GetPosts. n <= 0 means one worker per post.
func WithMaxConcurrency(n int) Option {
	return func(s *PostService) {
		s.maxConcurrency = n
	}
}

func NewPostService(source domain.PostSource, markdown MarkdownRenderer, opts ...Option) *PostService {
	s := &PostService{
		source:   source,
		markdown: markdown,
		policy:   FailFast,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPost builds the post stored under slug.
func (s *PostService) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	raw, err := s.source.Read(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to read post %s: %w", slug, err)
	}

	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", slug, err)
	}

	title, err := fm.required(slug, titleKey)
	if err != nil {
		return nil, err
	}
	tagline, err := fm.required(slug, taglineKey)
	if err != nil {
		return nil, err
	}
	date, err := fm.date()
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", slug, err)
	}

	content, err := s.render(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", slug, err)
	}

	return &domain.Post{
		Slug:    slug,
		Title:   title,
		Tagline: tagline,
		Date:    date,
		Draft:   fm.draft(),
		Content: content,
	}, nil
}

func (s *PostService) render(ctx context.Context, body []byte) (string, error) {
	if s.cache == nil {
		return s.markdown.Render(body)
	}

	key := cacheKey(s.markdown.Fingerprint(), body)

	html, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read render cache")
	} else if ok {
		return html, nil
	}

	html, err = s.markdown.Render(body)
	if err != nil {
		return "", err
	}

	if err := s.cache.Put(ctx, key, html); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to write render cache")
	}

	return html, nil
}

// cacheKey hashes the renderer fingerprint together with the body, so a change to either
// misses the cache.
func cacheKey(fingerprint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// GetPosts builds every post concurrently, drops drafts unless mode is development, and
// returns the rest newest first. Undated posts come last; ties sort by title.
func (s *PostService) GetPosts(ctx context.Context, mode domain.Mode) ([]*domain.Post, error) {
	slugs, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	results := make([]*domain.Post, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for i, slug := range slugs {
		g.Go(func() error {
			post, err := s.GetPost(gctx, slug)
			if err == nil {
				results[i] = post
				return nil
			}

			if s.policy == SkipInvalid && errors.Is(err, domain.ErrMalformedPost) {
				log.Warn().Err(err).Str("slug", slug).Msg("Skipping malformed post")
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(results))
	for _, p := range results {
		if p == nil {
			continue
		}
		if p.Draft && mode != domain.ModeDevelopment {
			continue
		}
		posts = append(posts, p)
	}

	sortPosts(posts)

	return posts, nil
}

// sortPosts orders by date descending with undated posts last, then by title, then by slug.
func sortPosts(posts []*domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]

		switch {
		case a.Dated() && !b.Dated():
			return true
		case !a.Dated() && b.Dated():
			return false
		case a.Dated() && b.Dated() && !a.Date.Equal(*b.Date):
			return a.Date.After(*b.Date)
		}

		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Slug < b.Slug
	})
}
