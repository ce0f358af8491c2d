package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dfryer1193/portfolio/api"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PostService is the read side of application.PostService.
type PostService interface {
	GetPost(ctx context.Context, slug string) (*domain.Post, error)
	GetPosts(ctx context.Context, mode domain.Mode) ([]*domain.Post, error)
}

type PostsHandler struct {
	service PostService
	mode    domain.Mode
}

func NewPostsHandler(service PostService, mode domain.Mode) *PostsHandler {
	return &PostsHandler{
		service: service,
		mode:    mode,
	}
}

func (h *PostsHandler) GetPosts(c *gin.Context) {
	posts, err := h.service.GetPosts(c.Request.Context(), h.mode)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]api.PostSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, api.NewPostSummary(p))
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *PostsHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	post, err := h.service.GetPost(c.Request.Context(), slug)
	if err != nil {
		writeError(c, err)
		return
	}

	// Drafts stay reachable by slug only in development
	if post.Draft && h.mode != domain.ModeDevelopment {
		writeError(c, domain.ErrPostNotFound)
		return
	}

	c.JSON(http.StatusOK, api.NewPost(post))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: api.Error{Code: "not_found", Message: "post not found"}})
	case errors.Is(err, domain.ErrMalformedPost):
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Malformed post")
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: api.Error{Code: "malformed_post", Message: err.Error()}})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to load posts")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.Error{Code: "internal", Message: "internal server error"}})
	}
}
