package rest

import (
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"
)

var wordleWords = []string{"apple", "balls", "stake", "skate", "acorn"}

// WordleHandler answers with a random five-letter word.
type WordleHandler struct {
	words []string
	pick  func(n int) int
}

func NewWordleHandler() *WordleHandler {
	return &WordleHandler{
		words: wordleWords,
		pick:  rand.IntN,
	}
}

func (h *WordleHandler) GetWord(c *gin.Context) {
	c.JSON(http.StatusOK, h.words[h.pick(len(h.words))])
}
