package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("", middleware.RequirePermission(service.PermOrdersRead), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission(service.PermOrdersRead), h.GetOrder)
		orders.POST("", middleware.RequirePermission(service.PermOrdersWrite), h.CreateOrder)
		orders.PUT("/:id", middleware.RequirePermission(service.PermOrdersWrite), h.UpdateOrder)
		orders.DELETE("/:id", middleware.RequirePermission(service.PermOrdersDelete), h.DeleteOrder)
	}
}

// ListOrders returns the orders of the stores visible to the caller
// @Summary      List orders
// @Tags         orders
// @Security     SessionCookie
// @Produce      json
// @Param        storeId     query     int     false  "Store"
// @Param        startDate   query     string  false  "Planned from (YYYY-MM-DD)"
// @Param        endDate     query     string  false  "Planned until (YYYY-MM-DD)"
// @Param        status      query     string  false  "pending, planned or delivered"
// @Param        supplierId  query     int     false  "Supplier"
// @Success      200         {object}  response.Response{data=[]service.OrderResponse}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	orders, err := h.orderService.ListOrders(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, orders))
}

// @Summary      Get order
// @Tags         orders
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// @Summary      Create order
// @Tags         orders
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orderService.CreateOrder(c.Request.Context(), r, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateOrder edits an order; status can only move forward
// @Summary      Update order
// @Tags         orders
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                         true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// @Summary      Delete order
// @Tags         orders
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Order deleted")))
}
