package authz

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleFinance  = "finance"
)

var Roles = []string{
	RoleAdmin,
	RoleManager,
	RoleEmployee,
	RoleHR,
	RoleFinance,
}

func ValidRole(name string) bool {
	for _, role := range Roles {
		if role == name {
			return true
		}
	}
	return false
}
