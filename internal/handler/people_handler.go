package handler

import (
	"net/http"
	"people_api/internal/service"

	"github.com/gin-gonic/gin"
)

// PeopleHandler 负责 /people 列表接口。
type PeopleHandler struct {
	peopleService service.PeopleService
}

func NewPeopleHandler(peopleService service.PeopleService) *PeopleHandler {
	return &PeopleHandler{peopleService: peopleService}
}

// List 按查询参数过滤、分页并返回人员档案数组。
func (h *PeopleHandler) List(c *gin.Context) {
	req, err := service.ParsePeopleRequest(c.Query)
	if err != nil {
		writeServiceError(c, "PeopleHandler.List: invalid query", err)
		return
	}

	profiles, err := h.peopleService.Query(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, "PeopleHandler.List: failed to query people", err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
