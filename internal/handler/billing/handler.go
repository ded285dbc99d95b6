package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/handler"
	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/service/billing"
)

type Handler struct {
	svc *billing.Service
}

func NewHandler(svc *billing.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients/:id")
	{
		patients.POST("/payments", h.CreatePayment)
		patients.GET("/payments", h.ListPayments)
		patients.GET("/totals", h.Totals)
	}
	r.PATCH("/payments/:id", h.UpdatePayment)
	r.GET("/invoice/:national_id", h.Invoice)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	payment, err := h.svc.CreatePayment(c.Request.Context(), patientID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(payment))
}

func (h *Handler) ListPayments(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	payments, err := h.svc.ListPayments(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payments))
}

func (h *Handler) Totals(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	totals, err := h.svc.PatientTotals(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(totals))
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid payment ID"))
		return
	}

	var req model.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	payment, err := h.svc.UpdatePayment(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

func (h *Handler) Invoice(c *gin.Context) {
	invoice, err := h.svc.BuildInvoice(c.Request.Context(), c.Param("national_id"))
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}
