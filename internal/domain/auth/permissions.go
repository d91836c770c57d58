package auth

const (
	RoleAdministrator = "administrator"
	RoleShopManager   = "shop_manager"
	RoleCustomer      = "customer"
)

const (
	PermNotesRead    = "notes.read"
	PermNotesWrite   = "notes.write"
	PermPluginManage = "plugin.manage"
	PermMetricsRead  = "metrics.read"
)

var RolePermissions = map[string][]string{
	RoleAdministrator: {
		PermNotesRead,
		PermNotesWrite,
		PermPluginManage,
		PermMetricsRead,
	},
	RoleShopManager: {
		PermNotesRead,
		PermNotesWrite,
		PermMetricsRead,
	},
	RoleCustomer: {},
}

func KnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
