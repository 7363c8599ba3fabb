package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sangkips/mini-crm/internal/application/export"
	"github.com/sangkips/mini-crm/internal/application/service"
	"github.com/sangkips/mini-crm/internal/domain/entity"
	"github.com/sangkips/mini-crm/internal/presentation/http/dto/request"
	"github.com/sangkips/mini-crm/internal/presentation/web"
	"github.com/sangkips/mini-crm/pkg/apperror"
	"github.com/sangkips/mini-crm/pkg/pagination"
	"go.uber.org/zap"
)

// Page actions
const (
	ActionIndex  = "index"
	ActionCreate = "create"
	ActionStore  = "store"
	ActionEdit   = "edit"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

var errCustomerNotFound = apperror.NewNotFoundError("Customer")

const (
	msgInvalidID       = "Invalid customer ID."
	msgCreated         = "Customer created successfully."
	msgUpdated         = "Customer updated successfully."
	msgDeleted         = "Customer deleted successfully."
	titleList          = "Zoznam zákazníkov"
	titleCreate        = "Nový zákazník"
	titleEdit          = "Upraviť zákazníka"
	listPath           = "/"
	createFormRedirect = "/?action=create&error="
)

// CustomerStore is the part of the customer service the page actions use
type CustomerStore interface {
	ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*service.CustomerPage, error)
	GetByID(ctx context.Context, id uint64) (*entity.Customer, error)
	Create(ctx context.Context, input service.CustomerInput) (uint64, error)
	Update(ctx context.Context, id uint64, input service.CustomerInput) (bool, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	ExportCustomers(ctx context.Context, search string) ([]entity.Customer, error)
}

// PageRequest is everything a page action reads from the inbound request
type PageRequest struct {
	Method string
	Query  request.PageQuery
	Form   request.CustomerForm
}

// ExportFile is a file download produced by the export action
type ExportFile struct {
	Format    export.Format
	Filename  string
	Customers []entity.Customer
}

// Result is the outcome of one page action: a page, a redirect, or a download
type Result struct {
	Status     int
	Template   string
	Data       interface{}
	RedirectTo string
	Export     *ExportFile
}

// CustomerHandler handles the customer page actions
type CustomerHandler struct {
	store   CustomerStore
	perPage int
	debug   bool
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// HandlerOption configures a CustomerHandler
type HandlerOption func(*CustomerHandler)

// WithClock overrides the clock used for export filenames
func WithClock(now func() time.Time) HandlerOption {
	return func(h *CustomerHandler) {
		h.now = now
	}
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(store CustomerStore, perPage int, debug bool, loc *time.Location, logger *zap.Logger, opts ...HandlerOption) *CustomerHandler {
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &CustomerHandler{
		store:   store,
		perPage: perPage,
		debug:   debug,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dispatch binds the gin request and writes the result of its action
func (h *CustomerHandler) Dispatch(c *gin.Context) {
	req := PageRequest{Method: c.Request.Method}
	if err := c.ShouldBindQuery(&req.Query); err != nil {
		_ = c.Error(err)
	}
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindWith(&req.Form, binding.FormPost); err != nil {
			_ = c.Error(err)
		}
	}

	h.write(c, h.Handle(c.Request.Context(), req))
}

// Handle runs the action named by the request
func (h *CustomerHandler) Handle(ctx context.Context, req PageRequest) Result {
	action := req.Query.Action
	if action == "" {
		action = ActionIndex
	}

	switch action {
	case ActionIndex:
		return h.index(ctx, req)
	case ActionCreate:
		return h.create(req)
	case ActionStore:
		return h.storeCustomer(ctx, req)
	case ActionEdit:
		return h.withID(req, func(id uint64) Result { return h.edit(ctx, req, id) })
	case ActionUpdate:
		return h.withID(req, func(id uint64) Result { return h.update(ctx, req, id) })
	case ActionDelete:
		return h.withID(req, func(id uint64) Result { return h.delete(ctx, id) })
	case ActionExport:
		return h.export(ctx, req)
	default:
		return redirect(listPath)
	}
}

func (h *CustomerHandler) index(ctx context.Context, req PageRequest) Result {
	params := &pagination.PaginationParams{
		Page:    parsePage(req.Query.Page),
		PerPage: h.perPage,
	}

	result, err := h.store.ListCustomers(ctx, params, req.Query.Search)
	if err != nil {
		return h.errorPage(err)
	}

	return Result{
		Status:   http.StatusOK,
		Template: web.TemplateIndex,
		Data: web.ListView{
			Page:          web.Page{Title: titleList, Success: req.Query.Success, Error: req.Query.Error},
			Customers:     result.Items,
			CurrentPage:   result.Pagination.CurrentPage,
			TotalPages:    result.Pagination.TotalPages,
			Total:         result.Pagination.Total,
			Search:        result.Search,
			CountDegraded: result.CountDegraded,
		},
	}
}

func (h *CustomerHandler) create(req PageRequest) Result {
	return Result{
		Status:   http.StatusOK,
		Template: web.TemplateCreate,
		Data:     web.FormView{Page: web.Page{Title: titleCreate, Error: req.Query.Error}},
	}
}

func (h *CustomerHandler) storeCustomer(ctx context.Context, req PageRequest) Result {
	if req.Method != http.MethodPost {
		return redirect(createFormRedirect + url.QueryEscape(apperror.ErrInvalidMethod.Message))
	}

	if _, err := h.store.Create(ctx, customerInput(req.Form)); err != nil {
		return redirect(createFormRedirect + url.QueryEscape(h.message(err)))
	}
	return redirectWithSuccess(msgCreated)
}

func (h *CustomerHandler) edit(ctx context.Context, req PageRequest, id uint64) Result {
	customer, err := h.store.GetByID(ctx, id)
	if err != nil {
		return h.errorPage(err)
	}
	if customer == nil {
		return redirectWithError(errCustomerNotFound.Message)
	}

	return Result{
		Status:   http.StatusOK,
		Template: web.TemplateEdit,
		Data: web.FormView{
			Page:     web.Page{Title: titleEdit, Error: req.Query.Error},
			Customer: customer,
		},
	}
}

func (h *CustomerHandler) update(ctx context.Context, req PageRequest, id uint64) Result {
	if req.Method != http.MethodPost {
		return redirect(editFormRedirect(id, apperror.ErrInvalidMethod.Message))
	}

	updated, err := h.store.Update(ctx, id, customerInput(req.Form))
	if err != nil {
		return redirect(editFormRedirect(id, h.message(err)))
	}
	if !updated {
		return redirectWithError(errCustomerNotFound.Message)
	}
	return redirectWithSuccess(msgUpdated)
}

func (h *CustomerHandler) delete(ctx context.Context, id uint64) Result {
	customer, err := h.store.GetByID(ctx, id)
	if err != nil {
		return redirectWithError(h.message(err))
	}
	if customer == nil {
		return redirectWithError(errCustomerNotFound.Message)
	}

	deleted, err := h.store.Delete(ctx, id)
	if err != nil {
		return redirectWithError(h.message(err))
	}
	if !deleted {
		return redirectWithError(errCustomerNotFound.Message)
	}
	return redirectWithSuccess(msgDeleted)
}

func (h *CustomerHandler) export(ctx context.Context, req PageRequest) Result {
	customers, err := h.store.ExportCustomers(ctx, req.Query.Search)
	if err != nil {
		return h.errorPage(err)
	}

	format := export.ParseFormat(req.Query.Format)
	return Result{
		Status: http.StatusOK,
		Export: &ExportFile{
			Format:    format,
			Filename:  export.Filename(h.now().In(h.loc), format),
			Customers: customers,
		},
	}
}

func (h *CustomerHandler) withID(req PageRequest, next func(id uint64) Result) Result {
	id, err := parseID(req.Query.ID)
	if err != nil {
		return redirectWithError(h.message(err))
	}
	return next(id)
}

// message is the text shown to the user for err
func (h *CustomerHandler) message(err error) string {
	return apperror.Detail(err, h.debug)
}

func (h *CustomerHandler) errorPage(err error) Result {
	appErr := apperror.GetAppError(err)
	detail := ""
	if h.debug && appErr.Err != nil {
		detail = appErr.Err.Error()
	}
	return Result{
		Status:   appErr.Code,
		Template: web.TemplateError,
		Data:     web.DatabaseError(detail),
	}
}

func (h *CustomerHandler) write(c *gin.Context, res Result) {
	switch {
	case res.RedirectTo != "":
		c.Redirect(http.StatusFound, res.RedirectTo)
	case res.Export != nil:
		h.writeExport(c, res.Export)
	default:
		c.HTML(res.Status, res.Template, res.Data)
	}
}

func (h *CustomerHandler) writeExport(c *gin.Context, file *ExportFile) {
	c.Header("Content-Type", file.Format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, file.Format, file.Customers, h.loc); err != nil {
		h.logger.Error("Failed to write export",
			zap.String("request_id", GetRequestID(c)),
			zap.String("file", file.Filename),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
}

func customerInput(form request.CustomerForm) service.CustomerInput {
	return service.CustomerInput{
		Name:  form.Name,
		Email: form.Email,
		Phone: form.Phone,
	}
}

// parsePage reads a page number, falling back to 1
func parsePage(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseID accepts positive decimal ids that fit a signed 64-bit column
func parseID(value string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 63)
	if err != nil || id == 0 {
		return 0, apperror.NewInvalidRequestError(msgInvalidID)
	}
	return id, nil
}

func editFormRedirect(id uint64, message string) string {
	return "/?action=edit&id=" + strconv.FormatUint(id, 10) + "&error=" + url.QueryEscape(message)
}

func redirect(to string) Result {
	return Result{Status: http.StatusFound, RedirectTo: to}
}

func redirectWithSuccess(message string) Result {
	return redirect("/?success=" + url.QueryEscape(message))
}

func redirectWithError(message string) Result {
	return redirect("/?error=" + url.QueryEscape(message))
}
