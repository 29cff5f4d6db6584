package rbac

// Permissions checked by the portal routes.
const (
	PermExamTake       = "exam:take"
	PermExamSubmit     = "exam:submit"
	PermResultView     = "result:view-own"
	PermLockdownVerify = "lockdown:verify"
	PermDashboardView  = "dashboard:view"
	PermSettingsWrite  = "settings:write"
	PermQuestionCreate = "question:create"
	PermQuestionDelete = "question:delete"
)

// RolePermissions is the default policy. Admins do not take the exam: the
// two session kinds carry disjoint permissions.
var RolePermissions = map[string][]string{
	"student": {
		PermExamTake,
		PermExamSubmit,
		PermResultView,
		PermLockdownVerify,
	},
	"admin": {
		PermDashboardView,
		"settings:*",
		"question:*",
	},
}
