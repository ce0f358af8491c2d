package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewApi registers every route on router. metrics may be nil.
func NewApi(router *gin.Engine, posts *PostsHandler, wordle *WordleHandler, metrics http.Handler) {
	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", posts.GetPosts)
		postsV1.GET("/:slug", posts.GetPost)
	}

	router.GET("/api/wordle", wordle.GetWord)
	router.GET("/healthz", Healthz)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
