package shared

// Seeded permission codes for the admin console. Codes render as
// scope.resource.action and are validated once at catalog load.
const (
	PermDirectoryUserView   = "directory.user.view"
	PermDirectoryUserEdit   = "directory.user.edit"
	PermDirectoryUserCreate = "directory.user.create"

	PermCatalogGroupView = "catalog.group.view"
	PermCatalogGroupEdit = "catalog.group.edit"

	PermCatalogPermissionView = "catalog.permission.view"

	PermRolesAssign = "roles.assignment.edit"

	PermDeviceView   = "inventory.device.view"
	PermDeviceEdit   = "inventory.device.edit"
	PermDeviceDelete = "inventory.device.delete"

	PermReportView = "reporting.report.view"
)

// CoreScopes lists every permission seeded at system initialization.
func CoreScopes() []string {
	return []string{
		PermDirectoryUserView,
		PermDirectoryUserEdit,
		PermDirectoryUserCreate,
		PermCatalogGroupView,
		PermCatalogGroupEdit,
		PermCatalogPermissionView,
		PermRolesAssign,
		PermDeviceView,
		PermDeviceEdit,
		PermDeviceDelete,
		PermReportView,
	}
}
