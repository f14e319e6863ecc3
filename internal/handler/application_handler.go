package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
}

func NewApplicationHandler(applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/api/loan-applications")
	{
		apps.POST("", middleware.RequirePermission("loan_applications.write"), h.SubmitApplication)
		apps.GET("", middleware.RequirePermission("loan_applications.read"), h.ListApplications)
		apps.GET("/:id", middleware.RequirePermission("loan_applications.read"), h.GetApplication)
		apps.GET("/:id/history", middleware.RequirePermission("loan_applications.read"), h.GetDecisionHistory)
		apps.PATCH("/:id/status", middleware.RequirePermission("loan_applications.decide"), h.DecideApplication)
	}
}

// SubmitApplication creates a new pending loan application
// @Summary      Submit loan application
// @Description  Submits a new loan application, validated against the loan type's amount and term bounds
// @Tags         loan-applications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitApplicationRequest  true  "Submit Application Payload"
// @Success      201      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/loan-applications [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	app, err := h.applicationService.Submit(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// ListApplications returns a paginated list of applications, optionally filtered by status
// @Summary      List loan applications
// @Description  Retrieves a paginated list of loan applications, optionally filtered by status
// @Tags         loan-applications
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (pending, approved, rejected, cancelled)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/loan-applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.ApplicationFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	apps, total, err := h.applicationService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, "applications", apps, total, params.Page, params.Limit))
}

// GetApplication returns a single application by ID
// @Summary      Get loan application
// @Description  Retrieves a loan application by ID, including the loan ID when one was created
// @Tags         loan-applications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loan-applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	app, err := h.applicationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// GetDecisionHistory returns the append-only decision history of an application
// @Summary      Get application decision history
// @Description  Retrieves the decision records of an application in chronological order
// @Tags         loan-applications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  response.Response{data=[]service.DecisionRecordResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loan-applications/{id}/history [get]
func (h *ApplicationHandler) GetDecisionHistory(c *gin.Context) {
	history, err := h.applicationService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// DecideApplication approves, rejects or cancels a pending application
// @Summary      Decide loan application
// @Description  Applies a terminal decision to a pending application; approval creates the loan in the same transaction
// @Tags         loan-applications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Application ID"
// @Param        payload  body      service.DecideApplicationRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/loan-applications/{id}/status [patch]
func (h *ApplicationHandler) DecideApplication(c *gin.Context) {
	var req service.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	app, err := h.applicationService.Decide(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}
