package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/api/suppliers")
	{
		suppliers.GET("", middleware.RequirePermission(service.PermSuppliersRead), h.ListSuppliers)
		suppliers.GET("/:id", middleware.RequirePermission(service.PermSuppliersRead), h.GetSupplier)
		suppliers.POST("", middleware.RequirePermission(service.PermSuppliersWrite), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequirePermission(service.PermSuppliersWrite), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequirePermission(service.PermSuppliersWrite), h.DeleteSupplier)
	}
}

// @Summary      List suppliers
// @Tags         suppliers
// @Security     SessionCookie
// @Produce      json
// @Param        search  query     string  false  "Name contains"
// @Param        dlc     query     bool    false  "Only suppliers with DLC tracking"
// @Success      200     {object}  response.Response{data=[]model.Supplier}
// @Router       /api/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.supplierService.ListSuppliers(c.Request.Context(), c.Query("search"), c.Query("dlc") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suppliers))
}

// @Summary      Get supplier
// @Tags         suppliers
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=model.Supplier}
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// @Summary      Create supplier
// @Tags         suppliers
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SupplierRequest  true  "Supplier"
// @Success      201      {object}  response.Response{data=model.Supplier}
// @Failure      400      {object}  response.Response
// @Router       /api/suppliers [post]
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// @Summary      Update supplier
// @Tags         suppliers
// @Security     SessionCookie
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Supplier ID"
// @Param        payload  body      service.SupplierRequest  true  "Supplier"
// @Success      200      {object}  response.Response{data=model.Supplier}
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// @Summary      Delete supplier
// @Tags         suppliers
// @Security     SessionCookie
// @Produce      json
// @Param        id   path      int  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/suppliers/{id} [delete]
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.supplierService.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Message("Supplier deleted")))
}
