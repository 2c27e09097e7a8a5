package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	// classes
	cg := g.Group("/classes", jwt)
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.POST("", api.createClass, adminMiddleware())
	cg.DELETE("/:id", api.archiveClass, adminMiddleware())
	cg.POST("/:id/restore", api.restoreClass, adminMiddleware())

	// attendance records; taking attendance is staff work
	rg := g.Group("/attendance", jwt)
	rg.GET("", api.queryRecords)
	rg.GET("/:id", api.retrieveRecord)
	rg.POST("", api.createRecord, staffMiddleware())
	rg.PUT("/:id", api.updateRecord, staffMiddleware())
	rg.DELETE("/:id", api.deleteRecord, staffMiddleware())
	rg.POST("/:id/restore", api.restoreRecord, adminMiddleware())
}

// staffMiddleware only lets teachers and admins through.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsTeacher || claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// Class handlers

func (api *attendanceApi) createClass(ctx echo.Context) error {
	var data attendance.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *attendanceApi) queryClasses(ctx echo.Context) error {
	var query ClassQueryRequest
	if err := ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Class{})
	}

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), query.IncludeArchived)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []attendance.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *attendanceApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.svc.GetClassByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *attendanceApi) archiveClass(ctx echo.Context) error {
	if _, err := api.svc.ArchiveClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == attendance.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "archiving class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) restoreClass(ctx echo.Context) error {
	cls, err := api.svc.RestoreClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "restoring class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

// Record handlers

func (api *attendanceApi) createRecord(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.CreateRecord(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == attendance.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating attendance record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}

	recs, err := api.svc.QueryRecords(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) retrieveRecord(ctx echo.Context) error {
	rec, err := api.svc.GetRecordByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding attendance record by ID")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) updateRecord(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.UpdateRecord(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == attendance.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating attendance record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) deleteRecord(ctx echo.Context) error {
	if _, err := api.svc.DeleteRecord(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == attendance.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) restoreRecord(ctx echo.Context) error {
	rec, err := api.svc.RestoreRecord(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == attendance.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "restoring attendance record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

type ClassQueryRequest struct {
	IncludeArchived bool `query:"include_archived"`
}
