package domain

type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
	RoleClient         Role = "client"
	RoleUser           Role = "user"
)

// Elevated roles bypass channel membership checks.
func (r Role) Elevated() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Role  Role   `db:"role"`
}
