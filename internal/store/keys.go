package store

// Collection keys persisted by the portal.
const (
	KeyUsers       = "users"
	KeyStudents    = "students"
	KeyTeachers    = "teachers"
	KeyCourses     = "courses"
	KeyAttendance  = "attendance"
	KeyResults     = "results"
	KeyCurrentUser = "currentUser"
	KeySettings    = "settings"
	KeyReportJobs  = "report_jobs"
)

// DefaultKeyPrefix namespaces every key written to a backend.
const DefaultKeyPrefix = "portal_"

// Keys lists every collection key in the order ClearAll removes them.
var Keys = []string{
	KeyUsers,
	KeyStudents,
	KeyTeachers,
	KeyCourses,
	KeyAttendance,
	KeyResults,
	KeyCurrentUser,
	KeySettings,
	KeyReportJobs,
}
