package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dfryer1193/portfolio/blog/domain"
)

var _ domain.PostSource = (*FSSource)(nil)

const postExt = ".md"

// FSSource reads posts from the *.md files directly under a directory of an fs.FS.
// It serves both os.DirFS directories and the embedded post set.
type FSSource struct {
	fsys fs.FS
	dir  string
}

// NewFSSource creates a FSSource rooted at dir inside fsys. An empty dir means the root.
func NewFSSource(fsys fs.FS, dir string) *FSSource {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		dir = "."
	}

	return &FSSource{
		fsys: fsys,
		dir:  dir,
	}
}

// List returns the slugs of all markdown files in the directory, sorted by name.
func (s *FSSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list post directory %s: %w", s.dir, err)
	}

	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		slug, ok := slugFromFilename(entry.Name())
		if !ok {
			continue
		}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	return slugs, nil
}

// Read returns the raw markdown for slug.
func (s *FSSource) Read(ctx context.Context, slug string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !validSlug(slug) {
		return nil, fmt.Errorf("%q: %w", slug, domain.ErrPostNotFound)
	}

	name := path.Join(s.dir, slug+postExt)
	content, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrPostNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read post file %s: %w", name, err)
	}

	return content, nil
}

// slugFromFilename strips the markdown extension. Hidden files are not posts.
func slugFromFilename(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	slug, found := strings.CutSuffix(name, postExt)
	if !found || slug == "" {
		return "", false
	}
	return slug, true
}

// validSlug reports whether slug names a single file, so it cannot escape the post directory.
// Control characters and invalid UTF-8 are rejected too, since no post file can carry them.
func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") || strings.ContainsAny(slug, `/\`) {
		return false
	}
	if !utf8.ValidString(slug) || strings.ContainsFunc(slug, unicode.IsControl) {
		return false
	}
	return fs.ValidPath(slug + postExt)
}
