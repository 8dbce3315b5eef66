package types

const ContextUserKey = "user"

// Role is a project membership role. Only the project creator may manage a
// project; the role is recorded for forward compatibility.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

var AvailableTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

func (s TaskStatus) Valid() bool {
	for _, status := range AvailableTaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}
