package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// requestMaxSize bounds any JSON request body.
const requestMaxSize = 64 * 1024 // 64 KiB

// services bundles the domain layer behind the handlers.
type services struct {
	workspaces *domain.WorkspaceService
	tasks      *domain.TaskService
	analytics  *domain.AnalyticsService
	guard      *domain.Guard
}

// Register wires up all API routes on the provided Echo instance and starts
// the event publisher. The returned publisher must be closed on shutdown.
func Register(e *echo.Echo, store Store, auth Authenticator, deduper Deduper, logger *log.Logger) *EventPublisher {
	publisher := NewEventPublisher(store, logger)

	locks := domain.NewKeyedLocks()
	guard := domain.NewGuard(store, store, locks, publisher)
	svc := &services{
		workspaces: domain.NewWorkspaceService(store, store, store, store, guard, locks),
		tasks:      domain.NewTaskService(store, store, store, guard, locks, publisher),
		analytics:  domain.NewAnalyticsService(store, store, guard),
		guard:      guard,
	}

	e.GET("/api/workspaces", listWorkspaces(svc, auth))
	e.POST("/api/workspaces", postWorkspace(svc, auth))
	e.GET("/api/workspaces/:id", getWorkspace(svc, auth))
	e.PATCH("/api/workspaces/:id", patchWorkspace(svc, auth))
	e.DELETE("/api/workspaces/:id", deleteWorkspace(svc, auth))
	e.POST("/api/workspaces/:id/join", joinWorkspace(svc, auth))
	e.POST("/api/workspaces/:id/reset-invite-code", resetInviteCode(svc, auth))
	e.GET("/api/workspaces/:id/analytics", workspaceAnalytics(svc, auth))
	e.GET("/api/workspaces/:id/members", listMembers(svc, auth))

	e.GET("/api/members", listMemberDirectory(svc, auth))
	e.PATCH("/api/members/:id", patchMember(svc, auth))
	e.DELETE("/api/members/:id", deleteMember(svc, auth))

	e.GET("/api/projects", listProjects(svc, auth))
	e.POST("/api/projects", postProject(svc, auth))
	e.PATCH("/api/projects/:id", patchProject(svc, auth))
	e.DELETE("/api/projects/:id", deleteProject(svc, auth))
	e.GET("/api/projects/:id/analytics", projectAnalytics(svc, auth))

	e.GET("/api/tasks", getTasks(svc, auth, logger))
	e.POST("/api/tasks", postTask(svc, auth))
	e.GET("/api/tasks/:id", getTask(svc, auth))
	e.PATCH("/api/tasks/:id", patchTask(svc, auth))
	e.DELETE("/api/tasks/:id", deleteTask(svc, auth))
	e.POST("/api/tasks/:id/move", moveTask(svc, auth))
	e.POST("/api/tasks/bulk-update", bulkUpdateTasks(svc, auth, deduper))

	e.GET("/healthz", healthz())

	return publisher
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeBody strictly decodes a bounded JSON request body; unknown fields are
// rejected so typos fail loudly instead of being dropped.
func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// respondError maps domain failures onto HTTP statuses. Unknown errors are
// logged and surface as 500s without leaking internals.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return c.String(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		return c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		return c.String(http.StatusConflict, err.Error())
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrLastMember),
		errors.Is(err, domain.ErrLastAdmin),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrInvalidInviteCode),
		errors.Is(err, domain.ErrCrossWorkspace):
		return c.String(http.StatusBadRequest, err.Error())
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, "internal error")
}

// The client forwards the user's profile in headers; the token itself only
// carries the subject. Display data is denormalized onto membership records.
func userName(c echo.Context) string {
	return c.Request().Header.Get("X-User-Name")
}

func userEmail(c echo.Context) string {
	return c.Request().Header.Get("X-User-Email")
}

// authenticate resolves the calling user from the Authorization header,
// writing the 401 itself when the token does not verify.
func authenticate(c echo.Context, auth Authenticator) (string, bool) {
	userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
	if err != nil {
		_ = c.String(http.StatusUnauthorized, err.Error())
		return "", false
	}
	return userID, true
}
