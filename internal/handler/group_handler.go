package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService service.GroupService
}

func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/api/groups")
	{
		groups.GET("", middleware.RequirePermission(service.PermGroupsRead), h.ListGroups)
		groups.GET("/:id", middleware.RequirePermission(service.PermGroupsRead), h.GetGroup)
		groups.POST("", middleware.RequirePermission(service.PermGroupsWrite), h.CreateGroup)
		groups.PUT("/:id", middleware.RequirePermission(service.PermGroupsWrite), h.UpdateGroup)
		groups.DELETE("/:id", middleware.RequirePermission(service.PermGroupsWrite), h.DeleteGroup)
	}
}

// ListGroups returns every store, or only the caller's stores with mine=true
// @Summary      List stores
// @Tags         groups
// @Security     SessionCookie
// @Produce      json
// @Param        mine  query     bool  false  "Only stores the caller belongs to"
// @Success      200   {object}  response.Response{data=[]model.Group}
// @Router       /api/groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	groups, err := h.groupService.ListGroups(c.Request.Context(), r, c.Query("mine") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// @Summary      Get store
// @Tags         groups
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  response.Response{data=model.Group}
// @Failure      404  {object}  response.Response
// @Router       /api/groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// CreateGroup creates a store; a manager creating one becomes its member
// @Summary      Create store
// @Tags         groups
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateGroupRequest  true  "Store"
// @Success      201      {object}  response.Response{data=model.Group}
// @Failure      400      {object}  response.Response
// @Router       /api/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	group, err := h.groupService.CreateGroup(c.Request.Context(), r, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// @Summary      Update store
// @Tags         groups
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                         true  "Group ID"
// @Param        payload  body      service.UpdateGroupRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=model.Group}
// @Failure      403      {object}  response.Response
// @Router       /api/groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	group, err := h.groupService.UpdateGroup(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeleteGroup fails with 409 while orders, deliveries or DLC products reference the store
// @Summary      Delete store
// @Tags         groups
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Group ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.groupService.DeleteGroup(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Group deleted")))
}
