package handler

import (
	"context"
	"net/http"
	"people_api/internal/model"
	"people_api/internal/service"

	"github.com/gin-gonic/gin"
)

// DirectoryHandler 负责目录层级的只读接口。
// 不存在的目录返回空结果（200），不是 404。
type DirectoryHandler struct {
	resolver service.DirectoryResolver
}

func NewDirectoryHandler(resolver service.DirectoryResolver) *DirectoryHandler {
	return &DirectoryHandler{resolver: resolver}
}

// Get 返回单个目录，?fields=id,title 可以只取部分字段。
func (h *DirectoryHandler) Get(c *gin.Context) {
	fields, ok := h.fields(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	dir, err := h.resolver.Get(c.Request.Context(), id, fields)
	if err != nil {
		writeServiceError(c, "DirectoryHandler.Get: failed to resolve directory", err)
		return
	}
	if dir == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, dir)
}

// Children 返回直接子目录。
func (h *DirectoryHandler) Children(c *gin.Context) {
	h.list(c, "DirectoryHandler.Children", h.resolver.Children)
}

// Descendants 返回全部后代目录（深度优先先序）。
func (h *DirectoryHandler) Descendants(c *gin.Context) {
	h.list(c, "DirectoryHandler.Descendants", h.resolver.Descendants)
}

// Path 返回 ?directory= 的祖先路径，根目录在前（面包屑顺序），不含目录自身。
func (h *DirectoryHandler) Path(c *gin.Context) {
	id, ok := parseUintParam(c.Query("directory"))
	if !ok {
		c.JSON(http.StatusOK, []model.PathEntry{})
		return
	}

	path, err := h.resolver.Path(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, "DirectoryHandler.Path: failed to walk ancestors", err)
		return
	}
	breadcrumb := make([]model.PathEntry, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		breadcrumb = append(breadcrumb, path[i])
	}
	c.JSON(http.StatusOK, breadcrumb)
}

// Search 按 ?term= 全文搜索目录，?inherit_children=1 且只命中一个时追加它的后代。
func (h *DirectoryHandler) Search(c *gin.Context) {
	dirs, err := h.resolver.Search(c.Request.Context(), c.Query("term"), parseBoolParam(c.Query("inherit_children")))
	if err != nil {
		writeServiceError(c, "DirectoryHandler.Search: failed to search directories", err)
		return
	}
	c.JSON(http.StatusOK, dirs)
}

func (h *DirectoryHandler) list(c *gin.Context, scope string, fn func(context.Context, uint, model.DirectoryFieldSet) ([]model.ResolvedDirectory, error)) {
	fields, ok := h.fields(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, []model.ResolvedDirectory{})
		return
	}

	dirs, err := fn(c.Request.Context(), id, fields)
	if err != nil {
		writeServiceError(c, scope+": failed to resolve directories", err)
		return
	}
	c.JSON(http.StatusOK, dirs)
}

// fields 解析 ?fields=，未知字段直接返回 400。
func (h *DirectoryHandler) fields(c *gin.Context) (model.DirectoryFieldSet, bool) {
	fields, err := model.ParseDirectoryFields(c.Query("fields"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
		return nil, false
	}
	return fields, true
}
