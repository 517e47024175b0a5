package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// SystemActor marks records written without a logged-in user.
const SystemActor = "system"

// DateLayout is the calendar date format used for attendance days.
const DateLayout = "2006-01-02"

// AttendanceRecord is one student's status for one course on one day.
// (CourseID, StudentID, Date) identifies the record.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	CourseID  string           `json:"courseId"`
	StudentID string           `json:"studentId"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	MarkedBy  string           `json:"markedBy"`
	MarkedAt  time.Time        `json:"markedAt"`
}

// AttendanceID builds the composite record id.
func AttendanceID(courseID, studentID, date string) string {
	return courseID + "_" + studentID + "_" + date
}

// SameSlot reports whether two records share the composite identity.
func (r AttendanceRecord) SameSlot(courseID, studentID, date string) bool {
	return r.CourseID == courseID && r.StudentID == studentID && r.Date == date
}

// AttendanceEntry is one line of a bulk marking request.
type AttendanceEntry struct {
	StudentID string           `json:"studentId" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent"`
}

// AttendanceStats summarises a set of attendance records.
type AttendanceStats struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Percentage int `json:"percentage"`
}

// StudentAttendanceSummary is a per-student line of a course summary.
type StudentAttendanceSummary struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	AttendanceStats
}

// CourseAttendanceSummary aggregates attendance for one course.
type CourseAttendanceSummary struct {
	CourseID          string                     `json:"courseId"`
	CourseName        string                     `json:"courseName"`
	TotalClasses      int                        `json:"totalClasses"`
	TotalStudents     int                        `json:"totalStudents"`
	AverageAttendance int                        `json:"averageAttendance"`
	StudentSummaries  []StudentAttendanceSummary `json:"studentSummaries"`
}

// AtRiskStudent is a student whose overall attendance is below the threshold.
type AtRiskStudent struct {
	Student
	AttendancePercentage int `json:"attendancePercentage"`
}
