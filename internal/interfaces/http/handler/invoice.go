package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/studioops/backend/internal/application/billing"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler exposes the customer billing portal and the back-office
// invoice management endpoints.
type InvoiceHandler struct {
	BaseHandler
	invoices     *appbilling.InvoiceService
	payments     *appbilling.PaymentReconciler
	requireAuth  gin.HandlerFunc
	requireAdmin gin.HandlerFunc
}

func NewInvoiceHandler(
	invoices *appbilling.InvoiceService,
	payments *appbilling.PaymentReconciler,
	requireAuth, requireAdmin gin.HandlerFunc,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:     invoices,
		payments:     payments,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// RegisterRoutes registers invoice routes on the API group.
func (h *InvoiceHandler) RegisterRoutes(api *gin.RouterGroup) {
	billing := api.Group("/billing", h.requireAuth)
	{
		billing.GET("/invoices", h.ListMine)
		billing.POST("/invoices/pay", h.Pay)
	}

	admin := api.Group("/admin/invoices", h.requireAuth, h.requireAdmin)
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.GET("/:id/ledger", h.Ledger)
	}
}

// ListMine returns the authenticated customer's invoices, synthesizing
// any that are owed for accepted work first.
func (h *InvoiceHandler) ListMine(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}

	views, err := h.invoices.ListCustomerInvoices(c.Request.Context(), principal.CustomerID())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// Pay records the next payment on an invoice. A payment that was already
// recorded is reported as a success with an explanatory message.
func (h *InvoiceHandler) Pay(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}
	var req appbilling.PayNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.payments.PayNow(c.Request.Context(), principal.CustomerID(), req.InvoiceRef)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List returns all invoices across customers for back-office review.
func (h *InvoiceHandler) List(c *gin.Context) {
	views, err := h.invoices.ListAllInvoices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// Create issues a manual invoice for a customer.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req appbilling.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	view, err := h.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Update applies a payment-state action to an invoice.
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return
	}
	var req appbilling.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.invoices.UpdateInvoice(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Ledger returns the payment ledger entries recorded for an invoice.
func (h *InvoiceHandler) Ledger(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return
	}

	entries, err := h.invoices.GetLedger(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
