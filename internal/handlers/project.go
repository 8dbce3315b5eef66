package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/utils"
)

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) CreateProject(ctx *gin.Context) {
	var body services.CreateProjectInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), body, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projects, err := h.projects.List(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	detail, err := h.projects.Get(ctx.Request.Context(), projectID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

func (h *ProjectHandler) UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.UpdateProjectInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	project, err := h.projects.Update(ctx.Request.Context(), projectID, userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), projectID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProjectHandler) AddMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.AddMemberInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	member, err := h.projects.AddMember(ctx.Request.Context(), projectID, userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, member)
}

func (h *ProjectHandler) RemoveMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	projectID, memberID, err := utils.GetProjectMemberID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.projects.RemoveMember(ctx.Request.Context(), projectID, memberID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
