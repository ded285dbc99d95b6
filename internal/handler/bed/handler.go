package bed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/handler"
	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/service/bed"
)

type Handler struct {
	svc *bed.Service
}

func NewHandler(svc *bed.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	beds := r.Group("/beds")
	{
		beds.POST("", h.Create)
		beds.GET("", h.List)
		beds.GET("/available", h.Available)
		beds.GET("/candidates", h.Candidates)
		beds.GET("/:id", h.Get)
		beds.POST("/:id/assign", h.Assign)
		beds.POST("/:id/release", h.Release)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	b, err := h.svc.CreateBed(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	var filters model.BedFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	beds, err := h.svc.ListBeds(c.Request.Context(), &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(beds))
}

func (h *Handler) Available(c *gin.Context) {
	beds, err := h.svc.AvailableBeds(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(beds))
}

// Candidates lists hospitalized patients who still need a bed.
func (h *Handler) Candidates(c *gin.Context) {
	patients, err := h.svc.CandidatePatients(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid bed ID"))
		return
	}

	b, err := h.svc.GetBed(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(b))
}

type assignRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid bed ID"))
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.svc.Assign(c.Request.Context(), id, req.PatientID); err != nil {
		handler.Error(c, err)
		return
	}

	b, err := h.svc.GetBed(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(b))
}

func (h *Handler) Release(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid bed ID"))
		return
	}

	if err := h.svc.Release(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
