package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoanHandler struct {
	loanService     service.LoanService
	scheduleService service.ScheduleService
	paymentService  service.PaymentService
}

func NewLoanHandler(loanService service.LoanService, scheduleService service.ScheduleService, paymentService service.PaymentService) *LoanHandler {
	return &LoanHandler{
		loanService:     loanService,
		scheduleService: scheduleService,
		paymentService:  paymentService,
	}
}

func (h *LoanHandler) RegisterRoutes(router *gin.RouterGroup) {
	loans := router.Group("/api/loans")
	{
		loans.GET("", middleware.RequirePermission("loans.read"), h.ListLoans)
		loans.GET("/number/:loanNumber", middleware.RequirePermission("loans.read"), h.GetLoanByNumber)
		loans.GET("/:id", middleware.RequirePermission("loans.read"), h.GetLoan)
		loans.GET("/:id/schedule", middleware.RequirePermission("loans.read"), h.GetSchedule)
		loans.GET("/:id/payments", middleware.RequirePermission("payments.read"), h.ListLoanPayments)
		loans.GET("/:id/aggregates", middleware.RequirePermission("payments.read"), h.GetPaymentAggregates)
		loans.PUT("/:id/default", middleware.RequirePermission("loans.write"), h.MarkDefaulted)
	}

	schedules := router.Group("/api/amortization")
	{
		schedules.POST("/preview", middleware.RequirePermission("loan_applications.read"), h.PreviewSchedule)
	}
}

// ListLoans returns a paginated list of loans, optionally filtered by status
// @Summary      List loans
// @Description  Retrieves a paginated list of loans, optionally filtered by status
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (active, paid, defaulted, cancelled)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/loans [get]
func (h *LoanHandler) ListLoans(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.LoanFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	loans, total, err := h.loanService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, "loans", loans, total, params.Page, params.Limit))
}

// GetLoan returns a single loan by ID
// @Summary      Get loan
// @Description  Retrieves a loan by ID
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=service.LoanResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	loan, err := h.loanService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loan))
}

// GetLoanByNumber returns a single loan by its business number
// @Summary      Get loan by number
// @Description  Retrieves a loan by its loan number (LN-YYYYMMDD-NNNNN)
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        loanNumber  path      string  true  "Loan Number"
// @Success      200         {object}  response.Response{data=service.LoanResponse}
// @Failure      404         {object}  response.Response
// @Router       /api/loans/number/{loanNumber} [get]
func (h *LoanHandler) GetLoanByNumber(c *gin.Context) {
	loan, err := h.loanService.GetByNumber(c.Request.Context(), c.Param("loanNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loan))
}

// GetSchedule returns the projected amortization schedule of a loan
// @Summary      Get loan schedule
// @Description  Projects the flat-rate amortization schedule from the loan's original terms
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=service.ScheduleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loans/{id}/schedule [get]
func (h *LoanHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleService.ProjectForLoan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}

// ListLoanPayments returns the payments of a loan ordered by payment number
// @Summary      List loan payments
// @Description  Retrieves the payments of a loan in payment-number order
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Loan ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/loans/{id}/payments [get]
func (h *LoanHandler) ListLoanPayments(c *gin.Context) {
	params := pagination.Parse(c)

	payments, total, err := h.paymentService.ListByLoan(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, "payments", payments, total, params.Page, params.Limit))
}

// GetPaymentAggregates returns completed-payment totals for a loan
// @Summary      Get loan payment aggregates
// @Description  Returns total, principal and interest sums over completed payments
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=service.PaymentAggregatesResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loans/{id}/aggregates [get]
func (h *LoanHandler) GetPaymentAggregates(c *gin.Context) {
	agg, err := h.paymentService.Aggregates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, agg))
}

// MarkDefaulted transitions an active loan to defaulted
// @Summary      Mark loan defaulted
// @Description  Marks an active loan as defaulted after an overdue review
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/loans/{id}/default [put]
func (h *LoanHandler) MarkDefaulted(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid loan id: "+err.Error()))
		return
	}

	if _, err := h.loanService.MarkDefaulted(c.Request.Context(), loanID); err != nil {
		respondError(c, err)
		return
	}

	loan, err := h.loanService.Get(c.Request.Context(), loanID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loan))
}

// PreviewSchedule computes an ad-hoc amortization schedule
// @Summary      Preview amortization schedule
// @Description  Computes a flat-rate schedule for the given principal, rate and term without persisting anything
// @Tags         amortization
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SchedulePreviewRequest  true  "Preview Payload"
// @Success      200      {object}  response.Response{data=service.ScheduleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/amortization/preview [post]
func (h *LoanHandler) PreviewSchedule(c *gin.Context) {
	var req service.SchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	schedule, err := h.scheduleService.Preview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}
