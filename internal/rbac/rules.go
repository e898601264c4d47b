package rbac

// Permissions.
const (
	PermQuizCreate     = "quiz:create"
	PermQuizView       = "quiz:view"
	PermQuestionWrite  = "question:write"
	PermAttemptCreate  = "attempt:create"
	PermAttemptAnswer  = "attempt:answer"
	PermAttemptViewOwn = "attempt:view-own"
	PermAttemptViewAll = "attempt:view-all"
	PermReportView     = "report:view"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermQuizView,
		PermAttemptCreate,
		PermAttemptAnswer,
		PermAttemptViewOwn,
	},
	"teacher": {
		PermQuizCreate,
		PermQuizView,
		PermQuestionWrite,
		PermAttemptCreate,
		PermAttemptAnswer,
		PermAttemptViewOwn,
		PermAttemptViewAll,
		PermReportView,
	},
	"admin": {
		"*",
	},
}
