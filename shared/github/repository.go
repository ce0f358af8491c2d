package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/google/go-github/v75/github"
)

var _ domain.PostSource = (*GithubPostSource)(nil)

const postExt = ".md"

// GithubPostSource is an implementation of domain.PostSource that reads a directory of a GitHub repository.
type GithubPostSource struct {
	client  *github.Client
	owner   string
	gitRepo string
	dir     string
	ref     string
}

// NewGithubPostSource creates a new GithubPostSource. An empty ref reads the default branch.
func NewGithubPostSource(client *github.Client, owner string, gitRepo string, dir string, ref string) *GithubPostSource {
	return &GithubPostSource{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		dir:     strings.Trim(dir, "/"),
		ref:     ref,
	}
}

func (g *GithubPostSource) contentOptions() *github.RepositoryContentGetOptions {
	if g.ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.ref}
}

// List returns the slug of every markdown file in the post directory.
func (g *GithubPostSource) List(ctx context.Context) ([]string, error) {
	op := fmt.Sprintf("listing %s in %s", g.dir, g.FullName())
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, g.dir, g.contentOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.GetType() != "file" {
			continue
		}
		name := entry.GetName()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if slug, ok := strings.CutSuffix(name, postExt); ok && slug != "" {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)

	return slugs, nil
}

// Read fetches the contents of the post file for slug.
func (g *GithubPostSource) Read(ctx context.Context, slug string) ([]byte, error) {
	if slug == "" || strings.HasPrefix(slug, ".") || strings.ContainsAny(slug, `/\`) || strings.ContainsFunc(slug, unicode.IsControl) {
		return nil, fmt.Errorf("%q: %w", slug, domain.ErrPostNotFound)
	}

	filePath := path.Join(g.dir, slug+postExt)
	op := fmt.Sprintf("getting file %s at ref %q", filePath, g.ref)

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, filePath, g.contentOptions())
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("github: %s is not a file: %w", filePath, domain.ErrPostNotFound)
	}

	// Files over 1 MB come back without inline content.
	if fileContent.GetEncoding() == "none" {
		return g.download(ctx, op, fileContent.GetDownloadURL())
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to decode content: %w", op, err)
	}

	return []byte(content), nil
}

// download fetches a file from its raw download URL with the client's authentication.
func (g *GithubPostSource) download(ctx context.Context, op string, downloadURL string) ([]byte, error) {
	if downloadURL == "" {
		return nil, fmt.Errorf("github: %s: file too large for the contents API and no download URL", op)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to build download request: %w", op, err)
	}

	resp, err := g.client.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s download failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("github: %s: %w", op, domain.ErrPostNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: %s download failed with status %d", op, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: %s failed to read download: %w", op, err)
	}
	return content, nil
}

// FullName returns the repository's full name (e.g., "owner/repo").
func (g *GithubPostSource) FullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

// handleGithubError inspects an error from the go-github client and returns a more informative, structured error.
// A 404 becomes domain.ErrPostNotFound.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		if errResp.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("github: %s: %w", op, domain.ErrPostNotFound)
		}
		return fmt.Errorf("github: %s failed with status %d: %s", op, errResp.Response.StatusCode, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}
