package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

func getID(ctx *gin.Context, param, label string) (string, error) {
	id := strings.TrimSpace(ctx.Param(param))

	if id == "" {
		return "", errors.New(label + " ID not found")
	}

	return id, nil
}

func GetProjectID(ctx *gin.Context) (string, error) {
	return getID(ctx, "project_id", "Project")
}

func GetMemberID(ctx *gin.Context) (string, error) {
	return getID(ctx, "member_id", "Member")
}

func GetTaskID(ctx *gin.Context) (string, error) {
	return getID(ctx, "task_id", "Task")
}

func GetSubtaskID(ctx *gin.Context) (string, error) {
	return getID(ctx, "subtask_id", "Subtask")
}

func GetNoteID(ctx *gin.Context) (string, error) {
	return getID(ctx, "note_id", "Note")
}

func GetProjectMemberID(ctx *gin.Context) (string, string, error) {
	projectID, err := GetProjectID(ctx)

	if err != nil {
		return "", "", err
	}

	memberID, err := GetMemberID(ctx)

	if err != nil {
		return "", "", err
	}

	return projectID, memberID, nil
}

func GetTaskSubtaskID(ctx *gin.Context) (string, string, error) {
	taskID, err := GetTaskID(ctx)

	if err != nil {
		return "", "", err
	}

	subtaskID, err := GetSubtaskID(ctx)

	if err != nil {
		return "", "", err
	}

	return taskID, subtaskID, nil
}
