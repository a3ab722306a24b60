package handler

import (
	"net/http"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理历史会话检索的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchSimulations 在当前用户的归档会话中做全文检索。
func (h *SearchHandler) SearchSimulations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "paramètre 'query' requis"})
		return
	}
	topK, err := strconv.Atoi(c.DefaultQuery("topK", "10"))
	if err != nil || topK <= 0 {
		topK = 10
	}

	results, err := h.searchService.SearchSimulations(c.Request.Context(), user, query, topK)
	if err != nil {
		log.Errorf("SearchSimulations: search failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "échec de la recherche"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": results, "message": "success"})
}
