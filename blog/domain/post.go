package domain

import (
	"context"
	"time"
)

// Post represents a blog post
// A post is built from a Markdown file with a frontmatter header. The slug comes from the file name,
// never from the content.
type Post struct {
	Slug    string
	Title   string
	Tagline string
	// Date is nil for undated posts
	Date    *time.Time
	Draft   bool
	Content string
}

// Dated reports whether the post carries a publication date.
func (p *Post) Dated() bool {
	return p.Date != nil
}

// PostSource enumerates and reads the raw Markdown documents behind posts.
// Implementations must be safe for concurrent use.
type PostSource interface {
	// List returns the slug of every available document.
	List(ctx context.Context) ([]string, error)

	// Read returns the raw text of the document for slug, or an error wrapping ErrPostNotFound.
	Read(ctx context.Context, slug string) ([]byte, error)
}

// Mode selects which posts are visible in listings.
type Mode int

const (
	ModeProduction Mode = iota
	ModeDevelopment
)

func (m Mode) String() string {
	if m == ModeDevelopment {
		return "development"
	}
	return "production"
}

// ParseMode maps a configuration value to a Mode. Anything other than "dev" or "development" is production.
func ParseMode(s string) Mode {
	switch s {
	case "dev", "development":
		return ModeDevelopment
	default:
		return ModeProduction
	}
}
