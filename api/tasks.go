package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

type tasksResponse struct {
	Tasks []domain.TaskDetails `json:"tasks"`
}

const idempotencyHeader = "X-Idempotency-Key"

func getTasks(svc *services, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		filter, filterErr := taskFilterFromQuery(c)
		if filterErr != nil {
			metrics.SetErrorStage("invalid_filter")
			err = c.String(http.StatusBadRequest, filterErr.Error())
			return err
		}
		metrics.SetFiltered(filter.Status != nil || filter.ProjectID != "" || filter.AssigneeID != "" || filter.Search != "" || filter.DueDate != nil)

		fetchStart := time.Now()
		tasks, fetchErr := svc.tasks.List(ctx, userID, filter)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("fetch")
			err = respondError(c, fetchErr)
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func taskFilterFromQuery(c echo.Context) (domain.TaskFilter, error) {
	f := domain.TaskFilter{
		WorkspaceID: c.QueryParam("workspaceId"),
		ProjectID:   c.QueryParam("projectId"),
		AssigneeID:  c.QueryParam("assigneeId"),
		Search:      c.QueryParam("search"),
	}
	if f.WorkspaceID == "" {
		return f, domain.ValidationError{Field: "workspaceId", Reason: "required"}
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			return f, domain.ValidationError{Field: "status", Reason: "unknown status"}
		}
		f.Status = &status
	}
	if raw := c.QueryParam("dueDate"); raw != "" {
		due, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, domain.ValidationError{Field: "dueDate", Reason: "must be RFC 3339"}
		}
		f.DueDate = &due
	}
	return f, nil
}

func postTask(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req domain.CreateTaskInput
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		t, err := svc.tasks.Create(c.Request().Context(), userID, req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func getTask(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		t, err := svc.tasks.Get(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func patchTask(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req domain.UpdateTaskInput
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		t, err := svc.tasks.Update(c.Request().Context(), userID, c.Param("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func deleteTask(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		if err := svc.tasks.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type moveRequest struct {
	Status domain.TaskStatus `json:"status"`
	Index  int               `json:"index"`
}

func moveTask(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		res, err := svc.tasks.Move(c.Request().Context(), userID, c.Param("id"), req.Status, req.Index)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

type bulkUpdateRequest struct {
	Tasks []domain.ReorderUpdate `json:"tasks"`
}

// bulkUpdateTasks applies a reorder batch. A client-supplied idempotency key
// suppresses replays for the deduper's TTL; the recorded key is rolled back
// when the apply fails so the client may retry.
func bulkUpdateTasks(svc *services, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req bulkUpdateRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		ctx := c.Request().Context()
		key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
		if key != "" && deduper != nil {
			added, err := deduper.Add(ctx, userID, key)
			if err != nil {
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, "internal error")
			}
			if !added {
				return c.NoContent(http.StatusAccepted)
			}
		}

		res, err := svc.tasks.BulkReorder(ctx, userID, req.Tasks)
		if err != nil {
			if key != "" && deduper != nil {
				if rerr := deduper.Remove(ctx, userID, key); rerr != nil {
					c.Logger().Errorf("dedupe rollback failed: %v", rerr)
				}
			}
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}
