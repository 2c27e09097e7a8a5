package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/maintenance"
)

type maintenanceApi struct {
	svc maintenance.Service
}

func registerMaintenanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc maintenance.Service) {
	api := maintenanceApi{svc: svc}

	mg := g.Group("/maintenance")

	// public: the page blocked users land on
	mg.GET("/notice", api.notice)

	// admin-only window management
	ag := mg.Group("", jwt, adminMiddleware())
	ag.GET("", api.retrieve)
	ag.PUT("", api.update)
}

// Handlers

func (api *maintenanceApi) notice(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Notice(ctx.Request().Context()))
}

func (api *maintenanceApi) retrieve(ctx echo.Context) error {
	w, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting maintenance window")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *maintenanceApi) update(ctx echo.Context) error {
	var data maintenance.UpdateWindow
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWindow")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	w, err := api.svc.Set(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting maintenance window")
	}
	return ctx.JSON(http.StatusOK, w)
}
