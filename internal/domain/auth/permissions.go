package auth

import (
	"context"
	"slices"
)

const (
	RoleAdmin    = "Admin"
	RoleOperator = "Operador"
)

const (
	PermFarmsRead     = "farms.read"
	PermFarmsWrite    = "farms.write"
	PermServicesRead  = "services.read"
	PermServicesWrite = "services.write"
	PermWorkersRead   = "workers.read"
	PermWorkersWrite  = "workers.write"
	PermWorkLogsRead  = "worklogs.read"
	PermWorkLogsWrite = "worklogs.write"
	PermPayrollRead   = "payroll.read"
	PermUsersManage   = "users.manage"
	PermAuditRead     = "audit.read"
)

var DefaultPermissions = []string{
	PermFarmsRead,
	PermFarmsWrite,
	PermServicesRead,
	PermServicesWrite,
	PermWorkersRead,
	PermWorkersWrite,
	PermWorkLogsRead,
	PermWorkLogsWrite,
	PermPayrollRead,
	PermUsersManage,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin: DefaultPermissions,
	RoleOperator: {
		PermFarmsRead,
		PermServicesRead,
		PermWorkersRead,
		PermWorkLogsRead,
		PermWorkLogsWrite,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func RoleHasPermission(role, permission string) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// StaticPermissions resolves permissions from the built-in role table.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return RoleHasPermission(role, permission), nil
}
