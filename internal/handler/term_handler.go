package handler

import (
	"errors"
	"io"
	"net/http"
	"people_api/internal/service"
	"people_api/pkg/log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// TermHandler 负责分类词条查询和组织词条维护接口。
type TermHandler struct {
	termService service.TermService
}

func NewTermHandler(termService service.TermService) *TermHandler {
	return &TermHandler{termService: termService}
}

// CreateOrganizationRequest 是创建组织词条的请求体，JSON 或表单均可。
type CreateOrganizationRequest struct {
	TagName   string `json:"tag_name" form:"tag_name"`
	TagParent string `json:"tag_parent" form:"tag_parent"`
}

// SyncOrganizationRequest 是同步组织词条的请求体。
type SyncOrganizationRequest struct {
	Nid    string `json:"nid" form:"nid"`
	Org    string `json:"org" form:"org"`
	Action string `json:"action" form:"action"`
}

// Search 按名称前缀搜索词条：?taxonomy=&s=&count=。
func (h *TermHandler) Search(c *gin.Context) {
	count := 0
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "count must be a positive number",
			})
			return
		}
		count = n
	}

	terms, err := h.termService.Search(c.Request.Context(), c.Query("taxonomy"), c.Query("s"), count)
	if err != nil {
		writeServiceError(c, "TermHandler.Search: failed to search terms", err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

// ListAll 返回 ?taxonomy= 的全部词条；未指定时按分类组返回全部已配置分类法。
func (h *TermHandler) ListAll(c *gin.Context) {
	if strings.TrimSpace(c.Query("taxonomy")) == "" {
		groups, err := h.termService.ListGrouped(c.Request.Context())
		if err != nil {
			writeServiceError(c, "TermHandler.ListAll: failed to list terms", err)
			return
		}
		c.JSON(http.StatusOK, groups)
		return
	}

	terms, err := h.termService.ListAll(c.Request.Context(), c.Query("taxonomy"))
	if err != nil {
		writeServiceError(c, "TermHandler.ListAll: failed to list terms", err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

// CreateOrganization 创建组织词条。
func (h *TermHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if !bindOptional(c, &req) {
		return
	}

	term, err := h.termService.CreateOrganization(c.Request.Context(), req.TagName, req.TagParent)
	if err != nil {
		writeServiceError(c, "TermHandler.CreateOrganization: failed to create organization", err)
		return
	}

	log.Infow("organization created", "slug", term.Slug, "parent", term.ParentID, "editor", editorFromContext(c))
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "Organization created successfully",
		"data":    term,
	})
}

// SyncOrganization 为 nid 对应的全部档案添加或移除组织词条。
func (h *TermHandler) SyncOrganization(c *gin.Context) {
	var req SyncOrganizationRequest
	if !bindOptional(c, &req) {
		return
	}

	result, err := h.termService.SyncOrganization(c.Request.Context(), req.Nid, req.Org, req.Action)
	if err != nil {
		writeServiceError(c, "TermHandler.SyncOrganization: failed to sync organization", err)
		return
	}

	log.Infow("organization synced",
		"nid", result.Nid, "org", result.Org, "action", result.Action,
		"matched", result.Matched, "changed", result.Changed, "editor", editorFromContext(c))
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Organization synced successfully",
		"data":    result,
	})
}

// bindOptional 绑定请求体或表单；空请求体不是错误，缺失字段交给 service 校验。
func bindOptional(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid request body",
		})
		return false
	}
	return true
}
