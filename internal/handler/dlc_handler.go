package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type DlcHandler struct {
	dlcService service.DlcService
}

func NewDlcHandler(dlcService service.DlcService) *DlcHandler {
	return &DlcHandler{dlcService: dlcService}
}

func (h *DlcHandler) RegisterRoutes(router *gin.RouterGroup) {
	dlc := router.Group("/api/dlc-products")
	{
		dlc.GET("", middleware.RequirePermission(service.PermDlcRead), h.ListProducts)
		dlc.GET("/stats", middleware.RequirePermission(service.PermDlcRead), h.Stats)
		dlc.GET("/:id", middleware.RequirePermission(service.PermDlcRead), h.GetProduct)
		dlc.POST("", middleware.RequirePermission(service.PermDlcWrite), h.CreateProduct)
		dlc.PUT("/:id", middleware.RequirePermission(service.PermDlcWrite), h.UpdateProduct)
		dlc.DELETE("/:id", middleware.RequirePermission(service.PermDlcWrite), h.DeleteProduct)
		dlc.POST("/:id/validate", middleware.RequirePermission(service.PermDlcWrite), h.ValidateProduct)
	}
}

// ListProducts returns DLC products ordered by expiry date
// @Summary      List DLC products
// @Tags         dlc
// @Security     SessionCookie
// @Produce      json
// @Param        storeId     query     int     false  "Store"
// @Param        supplierId  query     int     false  "Supplier"
// @Param        status      query     string  false  "active, expires_soon, expired or validated"
// @Param        search      query     string  false  "Product name or GTIN"
// @Success      200         {object}  response.Response{data=[]service.DlcResponse}
// @Router       /api/dlc-products [get]
func (h *DlcHandler) ListProducts(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.DlcListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	products, err := h.dlcService.ListProducts(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// @Summary      DLC status counts
// @Tags         dlc
// @Security     SessionCookie
// @Produce      json
// @Param        storeId  query     int  false  "Store"
// @Success      200      {object}  response.Response{data=model.DlcStats}
// @Router       /api/dlc-products/stats [get]
func (h *DlcHandler) Stats(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q struct {
		StoreID *uint `form:"storeId"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	stats, err := h.dlcService.Stats(c.Request.Context(), r, q.StoreID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// @Summary      Get DLC product
// @Tags         dlc
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.DlcResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/dlc-products/{id} [get]
func (h *DlcHandler) GetProduct(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.dlcService.GetProduct(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Create DLC product
// @Tags         dlc
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDlcRequest  true  "Product"
// @Success      201      {object}  response.Response{data=service.DlcResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/dlc-products [post]
func (h *DlcHandler) CreateProduct(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var req service.CreateDlcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.dlcService.CreateProduct(c.Request.Context(), r, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// @Summary      Update DLC product
// @Tags         dlc
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                       true  "Product ID"
// @Param        payload  body      service.UpdateDlcRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.DlcResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/dlc-products/{id} [put]
func (h *DlcHandler) UpdateProduct(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateDlcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.dlcService.UpdateProduct(c.Request.Context(), r, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ValidateProduct marks the product as handled
// @Summary      Validate DLC product
// @Tags         dlc
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.DlcResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/dlc-products/{id}/validate [post]
func (h *DlcHandler) ValidateProduct(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.dlcService.ValidateProduct(c.Request.Context(), r, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Delete DLC product
// @Tags         dlc
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/dlc-products/{id} [delete]
func (h *DlcHandler) DeleteProduct(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.dlcService.DeleteProduct(c.Request.Context(), r, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Product deleted")))
}
