package shared

import (
	"strconv"

	"github.com/sokosnap/internal/repository"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 20

// PageQuery 读取 page/page_size 查询参数并归一化
func PageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return NormalizePagination(page, pageSize)
}

// NormalizePagination 页码从 1 开始，页大小落在 [1, MaxPageSize]
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	return page, pageSize
}
