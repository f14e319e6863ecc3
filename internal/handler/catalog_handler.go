package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the reference data behind the lending workflow:
// customers, branches, loan products and the savings link.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.POST("", middleware.RequirePermission("customers.write"), h.CreateCustomer)
		customers.GET("", middleware.RequirePermission("customers.read"), h.ListCustomers)
		customers.GET("/:id", middleware.RequirePermission("customers.read"), h.GetCustomer)
	}

	branches := router.Group("/api/branches")
	{
		branches.POST("", middleware.RequirePermission("branches.write"), h.CreateBranch)
		branches.GET("", middleware.RequirePermission("branches.read"), h.ListBranches)
	}

	loanTypes := router.Group("/api/loan-types")
	{
		loanTypes.POST("", middleware.RequirePermission("loan_types.write"), h.CreateLoanType)
		loanTypes.GET("", middleware.RequirePermission("loan_types.read"), h.ListLoanTypes)
		loanTypes.GET("/:id", middleware.RequirePermission("loan_types.read"), h.GetLoanType)
		loanTypes.PUT("/:id", middleware.RequirePermission("loan_types.write"), h.UpdateLoanType)
	}

	savings := router.Group("/api/saving-accounts")
	{
		savings.GET("/:id", middleware.RequirePermission("customers.read"), h.GetSavingAccount)
	}
}

// CreateCustomer registers a new customer
// @Summary      Create customer
// @Description  Registers a new customer record
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerRequest  true  "Create Customer Payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.catalogService.CreateCustomer(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// ListCustomers returns a paginated customer list
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/customers [get]
func (h *CatalogHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)

	customers, total, err := h.catalogService.ListCustomers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, "customers", customers, total, params.Page, params.Limit))
}

// GetCustomer returns a customer by ID
// @Summary      Get customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	customer, err := h.catalogService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// CreateBranch registers a new branch
// @Summary      Create branch
// @Tags         branches
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBranchRequest  true  "Create Branch Payload"
// @Success      201      {object}  response.Response{data=model.Branch}
// @Failure      400      {object}  response.Response
// @Router       /api/branches [post]
func (h *CatalogHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	branch, err := h.catalogService.CreateBranch(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}

// ListBranches returns all branches
// @Summary      List branches
// @Tags         branches
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Failure      500  {object}  response.Response
// @Router       /api/branches [get]
func (h *CatalogHandler) ListBranches(c *gin.Context) {
	branches, err := h.catalogService.ListBranches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branches))
}

// CreateLoanType creates a new loan product
// @Summary      Create loan type
// @Description  Creates a loan product with amount and term bounds and a flat annual interest rate
// @Tags         loan-types
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateLoanTypeRequest  true  "Create Loan Type Payload"
// @Success      201      {object}  response.Response{data=service.LoanTypeResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/loan-types [post]
func (h *CatalogHandler) CreateLoanType(c *gin.Context) {
	var req service.CreateLoanTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	loanType, err := h.catalogService.CreateLoanType(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, loanType))
}

// UpdateLoanType updates a loan product
// @Summary      Update loan type
// @Description  Updates a loan product; existing loans keep their snapshotted rate
// @Tags         loan-types
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Loan Type ID"
// @Param        payload  body      service.UpdateLoanTypeRequest  true  "Update Loan Type Payload"
// @Success      200      {object}  response.Response{data=service.LoanTypeResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/loan-types/{id} [put]
func (h *CatalogHandler) UpdateLoanType(c *gin.Context) {
	var req service.UpdateLoanTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	loanType, err := h.catalogService.UpdateLoanType(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loanType))
}

// GetLoanType returns a loan product by ID
// @Summary      Get loan type
// @Tags         loan-types
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Loan Type ID"
// @Success      200  {object}  response.Response{data=service.LoanTypeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/loan-types/{id} [get]
func (h *CatalogHandler) GetLoanType(c *gin.Context) {
	loanType, err := h.catalogService.GetLoanType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loanType))
}

// ListLoanTypes returns all loan products
// @Summary      List loan types
// @Tags         loan-types
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.LoanTypeResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/loan-types [get]
func (h *CatalogHandler) ListLoanTypes(c *gin.Context) {
	loanTypes, err := h.catalogService.ListLoanTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, loanTypes))
}

// GetSavingAccount returns a savings account linked from an application
// @Summary      Get saving account
// @Description  Retrieves a savings account; lending only reads these records
// @Tags         saving-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Saving Account ID"
// @Success      200  {object}  response.Response{data=model.SavingAccount}
// @Failure      404  {object}  response.Response
// @Router       /api/saving-accounts/{id} [get]
func (h *CatalogHandler) GetSavingAccount(c *gin.Context) {
	account, err := h.catalogService.GetSavingAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}
