package service

import "github.com/gurkanbulca/taskboard/internal/models"

// Action is an operation on a task that needs authorization.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
)

// CanPerform decides whether requester may apply action to task. It has no
// side effects and is checked before every task mutation. task is ignored
// for ActionCreate.
func CanPerform(action Action, requester *models.User, task *models.Task) bool {
	if requester == nil || requester.IsTombstone() {
		return false
	}

	switch action {
	case ActionCreate:
		return requester.Role == models.RoleCreator
	case ActionUpdate, ActionDelete:
		return task != nil && task.AuthorID == requester.ID
	case ActionComplete:
		return task != nil &&
			task.IsOpen() &&
			requester.Role == models.RoleCompleter &&
			(task.CompleterID == nil || task.IsClaimedBy(requester.ID))
	default:
		return false
	}
}
