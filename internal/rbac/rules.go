package rbac

const (
	PermAssessmentSubmit = "assessment:submit"
	PermLessonView       = "lesson:view"
	PermLessonViewKeys   = "lesson:view-keys"
	PermLessonGenerate   = "lesson:generate"
	PermProgressViewOwn  = "progress:view-own"
	PermProfileViewOwn   = "profile:view-own"
	PermProfileViewAll   = "profile:view-all"
	PermProfileEditAll   = "profile:edit-all"
	PermEventsView       = "events:view"
)

var RolePermissions = map[string][]string{
	"student": {
		PermAssessmentSubmit,
		PermLessonView,
		PermProgressViewOwn,
		PermProfileViewOwn,
	},
	"teacher": {
		PermAssessmentSubmit,
		"lesson:*",
		PermProgressViewOwn,
		"profile:view-*",
	},
	"admin": {
		"*",
	},
}
