package handler

import (
	"context"
	"net/http"

	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/errs"
	"github.com/Astemirdum/library-client/internal/model"
	md "github.com/Astemirdum/library-client/pkg/middleware"
	"github.com/Astemirdum/library-client/pkg/validate"
	_ "github.com/Astemirdum/library-client/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	ctrl Controller
	log  *zap.Logger
}

func New(ctrl Controller, log *zap.Logger) *Handler {
	return &Handler{
		ctrl: ctrl,
		log:  log.Named("handler"),
	}
}

// Response wraps every answer of the UI server.
type Response struct {
	State controller.State `json:"state"`
	// Prompt asks the caller to repeat the request with confirm=true.
	Prompt string `json:"prompt,omitempty"`
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		uiRPS   = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	ui := e.Group("/ui",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(uiRPS),
	)

	ui.GET("/state", h.State)
	ui.POST("/login", h.Login)
	ui.POST("/register", h.Register)
	ui.POST("/guest", h.Guest)
	ui.POST("/mode", h.ToggleMode)
	ui.POST("/logout", h.Logout)
	ui.POST("/back", h.Back)
	ui.POST("/notice/dismiss", h.DismissNotice)

	ui.GET("/books", h.GetBooks)
	ui.POST("/books/:id/select", h.SelectBook)
	ui.POST("/books/:id/borrow", h.Borrow)
	ui.POST("/books/:id/return", h.Return)
	ui.DELETE("/books/:id", h.DeleteBook)

	ui.POST("/profile/open", h.OpenProfile)
	ui.PATCH("/profile", h.UpdateProfile)
	ui.GET("/loans", h.GetLoans)
	ui.GET("/history", h.GetHistory)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) State(c echo.Context) error {
	return h.reply(c, nil)
}

func (h *Handler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.reply(c, h.ctrl.Authenticate(c.Request().Context(), req.Username, req.Password))
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.reply(c, h.ctrl.Register(c.Request().Context(), req))
}

func (h *Handler) Guest(c echo.Context) error {
	return h.reply(c, h.ctrl.EnterAsGuest(c.Request().Context()))
}

func (h *Handler) ToggleMode(c echo.Context) error {
	h.ctrl.ToggleAuthMode()
	return h.reply(c, nil)
}

func (h *Handler) Logout(c echo.Context) error {
	return h.reply(c, h.ctrl.Logout(c.Request().Context()))
}

func (h *Handler) Back(c echo.Context) error {
	h.ctrl.Back()
	return h.reply(c, nil)
}

func (h *Handler) DismissNotice(c echo.Context) error {
	h.ctrl.DismissNotice()
	return h.reply(c, nil)
}

type pageQuery struct {
	Page string `query:"page" validate:"omitempty,oneof=next previous"`
}

func (h *Handler) GetBooks(c echo.Context) error {
	var q pageQuery
	if err := h.bind(c, &q); err != nil {
		return err
	}
	ctx := c.Request().Context()
	var err error
	switch {
	case q.Page == "next":
		err = h.ctrl.NextPage(ctx)
	case q.Page == "previous":
		err = h.ctrl.PreviousPage(ctx)
	case c.QueryParams().Has("search"):
		err = h.ctrl.Search(ctx, c.QueryParam("search"))
	default:
		err = h.ctrl.LoadCatalog(ctx, "")
	}
	return h.reply(c, err)
}

type bookParam struct {
	ID int `param:"id" validate:"gt=0"`
}

func (h *Handler) SelectBook(c echo.Context) error {
	var p bookParam
	if err := h.bind(c, &p); err != nil {
		return err
	}
	return h.reply(c, h.ctrl.SelectBook(p.ID))
}

func (h *Handler) Borrow(c echo.Context) error {
	var p bookParam
	if err := h.bind(c, &p); err != nil {
		return err
	}
	return h.reply(c, h.ctrl.Borrow(c.Request().Context(), p.ID))
}

func (h *Handler) Return(c echo.Context) error {
	var p bookParam
	if err := h.bind(c, &p); err != nil {
		return err
	}
	return h.reply(c, h.ctrl.Return(c.Request().Context(), p.ID))
}

// DeleteBook is two-step: without confirm=true it only answers 409 with the prompt.
func (h *Handler) DeleteBook(c echo.Context) error {
	var p struct {
		ID      int  `param:"id" validate:"gt=0"`
		Confirm bool `query:"confirm"`
	}
	if err := h.bind(c, &p); err != nil {
		return err
	}
	var prompt string
	err := h.ctrl.DeleteBook(c.Request().Context(), p.ID, func(_ context.Context, text string) bool {
		prompt = text
		return p.Confirm
	})
	if err == nil && !p.Confirm && prompt != "" {
		return c.JSON(http.StatusConflict, Response{State: h.ctrl.Snapshot(), Prompt: prompt})
	}
	return h.reply(c, err)
}

func (h *Handler) OpenProfile(c echo.Context) error {
	return h.reply(c, h.ctrl.OpenProfile(c.Request().Context()))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var upd model.ProfileUpdate
	if err := h.bind(c, &upd); err != nil {
		return err
	}
	return h.reply(c, h.ctrl.UpdateProfile(c.Request().Context(), upd))
}

func (h *Handler) GetLoans(c echo.Context) error {
	return h.reply(c, h.ctrl.LoadMyCurrentLoans(c.Request().Context()))
}

func (h *Handler) GetHistory(c echo.Context) error {
	var q pageQuery
	if err := h.bind(c, &q); err != nil {
		return err
	}
	ctx := c.Request().Context()
	var err error
	if q.Page == "" {
		err = h.ctrl.LoadLoanHistory(ctx, "")
	} else {
		err = h.ctrl.HistoryPage(ctx, q.Page == "next")
	}
	return h.reply(c, err)
}

func (h *Handler) bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *Handler) reply(c echo.Context, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("intent failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(code, Response{State: h.ctrl.Snapshot()})
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if apiErr, ok := errs.AsAPIError(err); ok {
		switch apiErr.Kind {
		case errs.KindAuth:
			return http.StatusUnauthorized
		case errs.KindValidation:
			return http.StatusBadRequest
		case errs.KindRejected:
			if apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
				return apiErr.Status
			}
			return http.StatusBadRequest
		default:
			return http.StatusBadGateway
		}
	}
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrGuest), errors.Is(err, errs.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrSignedIn):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
