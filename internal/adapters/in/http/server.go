package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

const (
	allKinds    = "all"
	sweepFailed = "Failed to run sweep"
)

// Use case contracts the server depends on. The command and query handlers of the
// application layer implement them.
type (
	SweepHandler interface {
		Handle(ctx context.Context, cmd commands.RunSweepCommand) (automation.Summary, error)
		HandleAll(ctx context.Context, trigger automation.TriggerSource) ([]commands.SweepResult, error)
	}
	TransitionOrderHandler interface {
		Handle(ctx context.Context, cmd commands.TransitionOrderCommand) (*order.Order, error)
	}
	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
	}
	CreateShipperHandler interface {
		Handle(ctx context.Context, cmd commands.CreateShipperCommand) (*shipper.Shipper, error)
	}
	UpdateSettingsHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateSettingsCommand) (automation.Settings, error)
	}
	GetOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (*order.Order, error)
	}
	GetActiveOrdersHandler interface {
		Handle(ctx context.Context, query queries.GetActiveOrdersQuery) ([]queries.GetActiveOrdersQueryResponse, error)
	}
	GetAvailableShippersHandler interface {
		Handle(ctx context.Context, query queries.GetAvailableShippersQuery) ([]queries.GetAvailableShippersQueryResponse, error)
	}
	GetAutomationRunsHandler interface {
		Handle(ctx context.Context, query queries.GetAutomationRunsQuery) ([]automation.Run, error)
	}
)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	// Command handlers
	RunSweep        SweepHandler
	TransitionOrder TransitionOrderHandler
	CreateOrder     CreateOrderHandler
	CreateShipper   CreateShipperHandler
	UpdateSettings  UpdateSettingsHandler

	// Query handlers
	GetOrder             GetOrderHandler
	GetActiveOrders      GetActiveOrdersHandler
	GetAvailableShippers GetAvailableShippersHandler
	GetAutomationRuns    GetAutomationRunsHandler

	Settings ports.SettingsProvider
}

// Server handles HTTP requests and coordinates them with application use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// RunAutomation handles POST /api/v1/automation/run/{kind} - runs a sweep now.
func (s *Server) RunAutomation(ctx echo.Context) error {
	var kind string
	err := runtime.BindStyledParameterWithOptions("simple", "kind", ctx.Param("kind"), &kind,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid format for parameter kind: "+err.Error())
	}

	if kind == allKinds {
		return s.runAll(ctx)
	}

	parsed, err := automation.ParseKind(kind)
	if err != nil {
		return s.problem(ctx, err, sweepFailed)
	}
	cmd, err := commands.NewRunSweepCommand(parsed, automation.TriggerManual)
	if err != nil {
		return s.problem(ctx, err, sweepFailed)
	}

	summary, err := s.h.RunSweep.Handle(ctx.Request().Context(), cmd)
	if errors.Is(err, automation.ErrAlreadyRunning) {
		return ctx.JSON(http.StatusConflict, AlreadyRunning{Status: "already_running"})
	}
	if err != nil {
		return s.problem(ctx, err, sweepFailed)
	}
	if summary.Errors == nil {
		summary.Errors = []string{}
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (s *Server) runAll(ctx echo.Context) error {
	// Failures are reported per kind below.
	results, _ := s.h.RunSweep.HandleAll(ctx.Request().Context(), automation.TriggerManual)

	response := SweepResults{
		Results: make([]SweepResult, 0, len(results)),
		Total:   automation.Summary{Errors: []string{}},
	}
	for _, r := range results {
		item := SweepResult{Kind: r.Kind.String(), Status: string(automation.RunCompleted), Summary: r.Summary}
		switch {
		case r.AlreadyRunning:
			item.Status = "already_running"
		case r.Err != nil:
			s.logger.ErrorContext(ctx.Request().Context(), sweepFailed, "kind", r.Kind.String(), "error", r.Err)
			item.Status = string(automation.RunFailed)
			item.Error = sweepFailed
		}
		if item.Summary.Errors == nil {
			item.Summary.Errors = []string{}
		}
		response.Total = response.Total.Merge(item.Summary)
		response.Results = append(response.Results, item)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetAutomationRuns handles GET /api/v1/automation/runs - lists recent runs.
func (s *Server) GetAutomationRuns(ctx echo.Context) error {
	var params GetAutomationRunsParams
	if err := runtime.BindQueryParameter("form", true, false, "kind", ctx.QueryParams(), &params.Kind); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid format for parameter kind: "+err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid format for parameter limit: "+err.Error())
	}

	var (
		kind  automation.Kind
		limit int
	)
	if params.Kind != nil {
		kind = automation.Kind(*params.Kind)
	}
	if params.Limit != nil {
		limit = *params.Limit
	}

	query, err := queries.NewGetAutomationRunsQuery(kind, limit)
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve automation runs")
	}
	runs, err := s.h.GetAutomationRuns.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve automation runs")
	}

	response := make([]AutomationRun, len(runs))
	for i, r := range runs {
		response[i] = toAPIRun(r)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetAutomationSettings handles GET /api/v1/automation/settings.
func (s *Server) GetAutomationSettings(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, toAPISettings(s.h.Settings.Current()))
}

// UpdateAutomationSettings handles PUT /api/v1/automation/settings - replaces the whole
// configuration if expectedVersion is still the latest.
func (s *Server) UpdateAutomationSettings(ctx echo.Context) error {
	var body UpdateSettings
	if err := ctx.Bind(&body); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid request body")
	}

	next, err := body.toDomain()
	if err != nil {
		return s.problem(ctx, err, "Failed to update settings")
	}
	cmd, err := commands.NewUpdateSettingsCommand(next, body.ExpectedVersion)
	if err != nil {
		return s.problem(ctx, err, "Failed to update settings")
	}

	saved, err := s.h.UpdateSettings.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.problem(ctx, err, "Failed to update settings")
	}
	return ctx.JSON(http.StatusOK, toAPISettings(saved))
}

// TransitionOrder handles PATCH /api/v1/orders/{id}/status - fires an event on an order.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	var body Transition
	if err = ctx.Bind(&body); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid request body")
	}

	event, err := order.ParseEvent(body.Event)
	if err != nil {
		return s.problem(ctx, err, "Failed to update order status")
	}
	var shipperID *kernel.UUID
	if body.ShipperID != nil {
		id, idErr := kernel.UUIDFromBytes(body.ShipperID[:])
		if idErr != nil {
			return s.problem(ctx, idErr, "Failed to update order status")
		}
		shipperID = &id
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, event, deref(body.Note), deref(body.Reason), shipperID)
	if err != nil {
		return s.problem(ctx, err, "Failed to update order status")
	}

	o, err := s.h.TransitionOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.transitionProblem(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toAPIOrder(o))
}

// CreateOrder handles POST /api/v1/orders - places a pending order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid request body")
	}

	items, delivery, err := body.toDomain()
	if err != nil {
		return s.problem(ctx, err, "Failed to create order")
	}
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), body.CustomerID, items, delivery,
		order.PaymentMethod(body.PaymentMethod))
	if err != nil {
		return s.problem(ctx, err, "Failed to create order")
	}

	o, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.problem(ctx, err, "Failed to create order")
	}
	return ctx.JSON(http.StatusCreated, toAPIOrder(o))
}

// GetOrder handles GET /api/v1/orders/{id}.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve order")
	}
	o, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve order")
	}
	return ctx.JSON(http.StatusOK, toAPIOrder(o))
}

// GetActiveOrders handles GET /api/v1/orders/active - lists orders not yet completed or cancelled.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	orders, err := s.h.GetActiveOrders.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve orders")
	}

	response := make([]ActiveOrder, len(orders))
	for i, o := range orders {
		response[i] = toAPIActiveOrder(o)
	}
	return ctx.JSON(http.StatusOK, response)
}

// CreateShipper handles POST /api/v1/shippers - registers an available shipper.
func (s *Server) CreateShipper(ctx echo.Context) error {
	var body NewShipper
	if err := ctx.Bind(&body); err != nil {
		return writeError(ctx, http.StatusBadRequest, "Invalid request body")
	}

	location, err := kernel.NewLocation(body.Location.Lat, body.Location.Lng)
	if err != nil {
		return s.problem(ctx, err, "Failed to create shipper")
	}
	cmd, err := commands.NewCreateShipperCommand(kernel.NewUUID(), body.Name, body.Phone, location)
	if err != nil {
		return s.problem(ctx, err, "Failed to create shipper")
	}

	created, err := s.h.CreateShipper.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.problem(ctx, err, "Failed to create shipper")
	}
	return ctx.JSON(http.StatusCreated, toAPIShipper(created))
}

// GetAvailableShippers handles GET /api/v1/shippers/available.
func (s *Server) GetAvailableShippers(ctx echo.Context) error {
	shippers, err := s.h.GetAvailableShippers.Handle(ctx.Request().Context(), queries.NewGetAvailableShippersQuery())
	if err != nil {
		return s.problem(ctx, err, "Failed to retrieve shippers")
	}

	response := make([]Shipper, len(shippers))
	for i, sh := range shippers {
		response[i] = toAPIAvailableShipper(sh)
	}
	return ctx.JSON(http.StatusOK, response)
}

func bindOrderID(ctx echo.Context) (kernel.UUID, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, err
	}
	return kernel.UUIDFromString(id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
