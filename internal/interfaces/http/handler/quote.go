package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/studioops/backend/internal/application/billing"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
)

// QuoteHandler exposes the quote request and review endpoints.
type QuoteHandler struct {
	BaseHandler
	quotes       *appbilling.QuoteService
	requireAuth  gin.HandlerFunc
	requireAdmin gin.HandlerFunc
}

func NewQuoteHandler(quotes *appbilling.QuoteService, requireAuth, requireAdmin gin.HandlerFunc) *QuoteHandler {
	return &QuoteHandler{
		quotes:       quotes,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// RegisterRoutes registers quote routes on the API group.
func (h *QuoteHandler) RegisterRoutes(api *gin.RouterGroup) {
	quotes := api.Group("/quotes")
	{
		// Quote requests come from the public site, before any account exists.
		quotes.POST("", h.Create)
		quotes.GET("/:id", h.requireAuth, h.Get)
		quotes.POST("/:id/accept", h.requireAuth, h.Accept)
	}

	admin := api.Group("/admin/quotes", h.requireAuth, h.requireAdmin)
	{
		admin.GET("", h.List)
		admin.PUT("/:id/status", h.UpdateStatus)
	}
}

// Create handles a public quote request and returns the priced quote.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req appbilling.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	quote, err := h.quotes.CreateQuote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// Get returns a single quote belonging to the authenticated customer.
func (h *QuoteHandler) Get(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	quote, err := h.quotes.GetQuoteForCustomer(c.Request.Context(), principal.CustomerID(), quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Accept marks a quoted proposal as accepted by the customer.
func (h *QuoteHandler) Accept(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "authentication required")
		return
	}
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	quote, err := h.quotes.AcceptQuote(c.Request.Context(), principal.CustomerID(), quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// List returns all quotes across customers for back-office review.
func (h *QuoteHandler) List(c *gin.Context) {
	quotes, err := h.quotes.ListAllQuotes(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quotes)
}

// UpdateStatus moves a quote through its workflow, optionally attaching
// a final cost and timeline.
func (h *QuoteHandler) UpdateStatus(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}
	var req appbilling.TransitionQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	quote, err := h.quotes.TransitionQuote(c.Request.Context(), quoteID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}
