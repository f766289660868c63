package authz

// PermAdmin is the sentinel permission: a principal holding it passes
// every check unconditionally.
const PermAdmin = "admin"

const (
	PermWeaponRead   = "weapon_read"
	PermWeaponCreate = "weapon_create"
	PermWeaponUpdate = "weapon_update"
	PermWeaponDelete = "weapon_delete"

	PermCategoryRead   = "category_read"
	PermCategoryCreate = "category_create"
	PermCategoryUpdate = "category_update"
	PermCategoryDelete = "category_delete"
)

const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
)
