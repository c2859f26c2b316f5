package core

import "farmoffice/internal/domain/auth"

// FilterWorkerFields strips labor-registration details that only
// administrators may see. Operators still get the name and active flag they
// need to fill in daily logs.
func FilterWorkerFields(worker *Worker, user auth.UserContext) {
	if user.Role == auth.RoleAdmin {
		return
	}
	worker.Registered = false
	worker.RegisteredAt = nil
	worker.Dependents = 0
}
