package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

type workspaceRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type workspacePatch struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

type joinRequest struct {
	Code string `json:"code"`
}

func listWorkspaces(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		out, err := svc.workspaces.ListForUser(c.Request().Context(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func postWorkspace(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req workspaceRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		ws, err := svc.workspaces.Create(c.Request().Context(), userID, userName(c), userEmail(c), req.Name, req.ImageURL)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, ws)
	}
}

func getWorkspace(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		ws, err := svc.workspaces.Get(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, ws)
	}
}

func patchWorkspace(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req workspacePatch
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		ws, err := svc.workspaces.Update(c.Request().Context(), userID, c.Param("id"), req.Name, req.ImageURL)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, ws)
	}
}

func deleteWorkspace(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		if err := svc.workspaces.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func joinWorkspace(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req joinRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		m, err := svc.guard.JoinWorkspace(c.Request().Context(), c.Param("id"), userID, userName(c), userEmail(c), req.Code)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, m)
	}
}

func resetInviteCode(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		ws, err := svc.workspaces.ResetInviteCode(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, ws)
	}
}

func workspaceAnalytics(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		snap, err := svc.analytics.Compute(c.Request().Context(), domain.Scope{WorkspaceID: c.Param("id")}, time.Now(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, snap)
	}
}

func listMembers(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		members, err := svc.guard.ListMembers(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, members)
	}
}

func listMemberDirectory(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			return c.String(http.StatusBadRequest, "workspaceId is required")
		}
		members, err := svc.guard.ListMembers(c.Request().Context(), userID, workspaceID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, members)
	}
}

type memberPatch struct {
	Role domain.MemberRole `json:"role"`
}

func patchMember(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req memberPatch
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		m, err := svc.guard.ChangeRole(c.Request().Context(), userID, c.Param("id"), req.Role)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, m)
	}
}

func deleteMember(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		if err := svc.guard.RemoveMember(c.Request().Context(), userID, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type projectRequest struct {
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
	ImageURL    string `json:"imageUrl"`
}

type projectPatch struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

func listProjects(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		workspaceID := c.QueryParam("workspaceId")
		if workspaceID == "" {
			return c.String(http.StatusBadRequest, "workspaceId is required")
		}
		projects, err := svc.workspaces.ListProjects(c.Request().Context(), userID, workspaceID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, projects)
	}
}

func postProject(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req projectRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		p, err := svc.workspaces.CreateProject(c.Request().Context(), userID, req.WorkspaceID, req.Name, req.ImageURL)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, p)
	}
}

func patchProject(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		var req projectPatch
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		p, err := svc.workspaces.UpdateProject(c.Request().Context(), userID, c.Param("id"), req.Name, req.ImageURL)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

func deleteProject(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		if err := svc.workspaces.DeleteProject(c.Request().Context(), userID, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func projectAnalytics(svc *services, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := authenticate(c, auth)
		if !ok {
			return nil
		}
		snap, err := svc.analytics.Compute(c.Request().Context(), domain.Scope{ProjectID: c.Param("id")}, time.Now(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, snap)
	}
}
