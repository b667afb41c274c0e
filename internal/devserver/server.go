// Package devserver is a reference backend for the board client: the JSON/HTTP
// contract on top of SQLite, with seed data and a reset endpoint. It is meant for
// local demos and integration tests.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"kanban-cli/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// New returns an Echo instance with every route registered.
func New(db *DB, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(requestLog(logger))
	Register(e, db)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, db *DB) {
	e.GET("/boards", listBoards(db))
	e.GET("/boards/:id", getBoard(db))
	e.POST("/boards", createBoard(db))
	e.PATCH("/boards/:id", updateBoard(db))
	e.DELETE("/boards/:id", deleteBoard(db))

	e.POST("/columns", createColumn(db))
	e.PATCH("/columns/:id", updateColumn(db))
	e.DELETE("/columns/:id", deleteColumn(db))

	e.POST("/tasks", createTask(db))
	e.PATCH("/tasks/:id", updateTask(db))
	e.DELETE("/tasks/:id", deleteTask(db))

	e.POST("/subtasks", createSubtask(db))
	e.PATCH("/subtasks/:id", updateSubtask(db))
	e.DELETE("/subtasks/:id", deleteSubtask(db))

	e.POST("/database/reset", resetDatabase(db))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func requestLog(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if logger != nil {
				logger.WithFields(log.Fields{
					"method":   c.Request().Method,
					"path":     c.Request().URL.Path,
					"status":   c.Response().Status,
					"duration": time.Since(start).String(),
				}).Info("request")
			}
			return nil
		}
	}
}

// fail maps storage errors onto HTTP errors.
func fail(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, field+" is required")
	}
	return nil
}

func bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func pathID(c echo.Context) model.ID { return model.ID(c.Param("id")) }

func ctx(c echo.Context) context.Context { return c.Request().Context() }

// Boards.

func listBoards(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		bs, err := db.ListBoards(ctx(c))
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, bs)
	}
}

func getBoard(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := db.GetBoard(ctx(c), pathID(c))
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func createBoard(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.CreateBoardInput
		if err := bind(c, &in); err != nil {
			return err
		}
		if err := required("name", in.Name); err != nil {
			return err
		}
		b, err := db.CreateBoard(ctx(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusCreated, b)
	}
}

func updateBoard(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.UpdateBoardInput
		if err := bind(c, &in); err != nil {
			return err
		}
		b, err := db.UpdateBoard(ctx(c), pathID(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, b)
	}
}

func deleteBoard(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.DeleteBoard(ctx(c), pathID(c)); err != nil {
			return fail(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// Columns.

func createColumn(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.CreateColumnInput
		if err := bind(c, &in); err != nil {
			return err
		}
		if err := required("name", in.Name); err != nil {
			return err
		}
		col, err := db.CreateColumn(ctx(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusCreated, col)
	}
}

func updateColumn(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.UpdateColumnInput
		if err := bind(c, &in); err != nil {
			return err
		}
		col, err := db.UpdateColumn(ctx(c), pathID(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func deleteColumn(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.DeleteColumn(ctx(c), pathID(c)); err != nil {
			return fail(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// Tasks.

func createTask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.CreateTaskInput
		if err := bind(c, &in); err != nil {
			return err
		}
		if err := required("title", in.Title); err != nil {
			return err
		}
		t, err := db.CreateTask(ctx(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func updateTask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.UpdateTaskInput
		if err := bind(c, &in); err != nil {
			return err
		}
		t, err := db.UpdateTask(ctx(c), pathID(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func deleteTask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.DeleteTask(ctx(c), pathID(c)); err != nil {
			return fail(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// Subtasks.

func createSubtask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.CreateSubtaskInput
		if err := bind(c, &in); err != nil {
			return err
		}
		if err := required("title", in.Title); err != nil {
			return err
		}
		s, err := db.CreateSubtask(ctx(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusCreated, s)
	}
}

func updateSubtask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.UpdateSubtaskInput
		if err := bind(c, &in); err != nil {
			return err
		}
		s, err := db.UpdateSubtask(ctx(c), pathID(c), in)
		if err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, s)
	}
}

func deleteSubtask(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.DeleteSubtask(ctx(c), pathID(c)); err != nil {
			return fail(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func resetDatabase(db *DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.Reset(ctx(c)); err != nil {
			return fail(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Database reset"})
	}
}
