package api

import (
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
)

// PostSummary is a listing entry. Date is omitted for undated posts.
type PostSummary struct {
	Slug    string     `json:"slug"`
	Title   string     `json:"title"`
	Tagline string     `json:"tagline"`
	Date    *time.Time `json:"date,omitempty"`
	Draft   bool       `json:"draft"`
}

type Post struct {
	PostSummary
	Content string `json:"content"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error Error `json:"error"`
}

func NewPostSummary(p *domain.Post) PostSummary {
	return PostSummary{
		Slug:    p.Slug,
		Title:   p.Title,
		Tagline: p.Tagline,
		Date:    p.Date,
		Draft:   p.Draft,
	}
}

func NewPost(p *domain.Post) Post {
	return Post{
		PostSummary: NewPostSummary(p),
		Content:     p.Content,
	}
}
