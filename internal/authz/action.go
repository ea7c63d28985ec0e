package authz

import "strings"

// Action names the operation a request intends, independent of transport.
type Action string

const (
	ActionShow    Action = "show"
	ActionNew     Action = "new"
	ActionEdit    Action = "edit"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"

	// Admin-surface actions carried over from the management views.
	ActionIndex       Action = "index"
	ActionAssignRoles Action = "assign_roles"
	ActionDashboard   Action = "dashboard"
)

// ActionForRequest derives the intended action from an HTTP method and path.
// The mapping is part of the engine's contract: GET resolves to edit or new
// when the path contains those segments and show otherwise; POST is create,
// PATCH/PUT are update, DELETE is destroy; anything else is treated as show.
func ActionForRequest(method, path string) Action {
	switch strings.ToUpper(method) {
	case "GET":
		if strings.Contains(path, "/edit") {
			return ActionEdit
		}
		if strings.Contains(path, "/new") {
			return ActionNew
		}
		return ActionShow
	case "POST":
		return ActionCreate
	case "PATCH", "PUT":
		return ActionUpdate
	case "DELETE":
		return ActionDestroy
	default:
		return ActionShow
	}
}
