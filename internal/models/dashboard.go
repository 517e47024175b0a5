package models

// StandingLabel describes a student's attendance standing.
type StandingLabel string

const (
	StandingGood             StandingLabel = "Good Standing"
	StandingNeedsImprovement StandingLabel = "Needs Improvement"
	StandingAtRisk           StandingLabel = "At Risk"
)

// AdminDashboard aggregates portal-wide counters.
type AdminDashboard struct {
	TotalStudents     int `json:"totalStudents"`
	TotalTeachers     int `json:"totalTeachers"`
	TotalCourses      int `json:"totalCourses"`
	AverageAttendance int `json:"averageAttendance"`
	StudentsAtRisk    int `json:"studentsAtRisk"`
}

// TeacherDashboard summarises the courses taught by one teacher.
type TeacherDashboard struct {
	TeacherID         string   `json:"teacherId"`
	Courses           []Course `json:"courses"`
	TotalStudents     int      `json:"totalStudents"`
	AverageAttendance int      `json:"averageAttendance"`
	ResultsUploaded   int      `json:"resultsUploaded"`
}

// StudentDashboard summarises one student's progress.
type StudentDashboard struct {
	StudentID        string          `json:"studentId"`
	GPA              GPAInfo         `json:"gpa"`
	Attendance       AttendanceStats `json:"attendance"`
	Standing         StandingLabel   `json:"standing"`
	EnrolledCourses  int             `json:"enrolledCourses"`
	ResultsPublished int             `json:"resultsPublished"`
	RecentResults    []ResultRecord  `json:"recentResults"`
}
