package handlers

import (
	"net/http"

	"go-erp-agent/internal/services"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves products, customers, suppliers and warehouses.
type ProductHandler struct {
	catalog *services.CatalogService
}

// --- Products ---

func (h *ProductHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListProducts(c.Request.Context(), c.Query("search")))
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req services.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update applies only the fields present in the body.
func (h *ProductHandler) Update(c *gin.Context) {
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), actor(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// Import takes a multipart "file" holding an XLSX product sheet.
func (h *ProductHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "Could not read uploaded file")
		return
	}
	defer f.Close()

	res, err := h.catalog.ImportProducts(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Customers ---

func (h *ProductHandler) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListCustomers(c.Request.Context(), c.Query("search")))
}

func (h *ProductHandler) GetCustomer(c *gin.Context) {
	cu, err := h.catalog.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cu)
}

func (h *ProductHandler) CreateCustomer(c *gin.Context) {
	var req services.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cu, err := h.catalog.CreateCustomer(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cu)
}

// --- Suppliers ---

func (h *ProductHandler) ListSuppliers(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListSuppliers(c.Request.Context(), c.Query("search")))
}

func (h *ProductHandler) GetSupplier(c *gin.Context) {
	s, err := h.catalog.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *ProductHandler) CreateSupplier(c *gin.Context) {
	var req services.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	s, err := h.catalog.CreateSupplier(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ProductHandler) ListWarehouses(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListWarehouses(c.Request.Context()))
}
