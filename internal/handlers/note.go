package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/services"
	"github.com/monocle-dev/devboard/internal/utils"
)

type NoteHandler struct {
	notes *services.NoteService
}

func NewNoteHandler(notes *services.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) CreateNote(ctx *gin.Context) {
	var body services.CreateNoteInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	note, err := h.notes.Create(ctx.Request.Context(), body, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, note)
}

func (h *NoteHandler) ListNotes(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	notes, err := h.notes.List(ctx.Request.Context(), projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(ctx *gin.Context) {
	noteID, err := utils.GetNoteID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	note, err := h.notes.Get(ctx.Request.Context(), noteID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, note)
}

func (h *NoteHandler) UpdateNote(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	noteID, err := utils.GetNoteID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	var body services.UpdateNoteInput

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	note, err := h.notes.Update(ctx.Request.Context(), noteID, userID, body)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondUnauthenticated(ctx)
		return
	}

	noteID, err := utils.GetNoteID(ctx)

	if err != nil {
		respondInvalidRequest(ctx, err)
		return
	}

	if err := h.notes.Delete(ctx.Request.Context(), noteID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
