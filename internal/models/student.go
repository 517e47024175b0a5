package models

import "strings"

// StudentStatus is the academic standing of a student.
type StudentStatus string

const (
	StudentStatusEnrolled    StudentStatus = "Enrolled"
	StudentStatusOnProbation StudentStatus = "On_Probation"
	StudentStatusGraduated   StudentStatus = "Graduated"
	StudentStatusSuspended   StudentStatus = "Suspended"
)

// Valid reports whether the status is one of the known values.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusEnrolled, StudentStatusOnProbation, StudentStatusGraduated, StudentStatusSuspended:
		return true
	default:
		return false
	}
}

// Student represents a learner registered in the portal.
type Student struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Department      string        `json:"department"`
	Semester        int           `json:"semester"`
	EnrolledCourses []string      `json:"enrolledCourses"`
	Status          StudentStatus `json:"status"`
	EnrollmentDate  string        `json:"enrollmentDate"`
}

// IsEnrolledIn reports whether courseID is in the student's enrollment set.
func (s Student) IsEnrolledIn(courseID string) bool {
	for _, id := range s.EnrolledCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// Matches is a case-insensitive search over id, name, email and department.
func (s Student) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{s.ID, s.Name, s.Email, s.Department} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search   string
	CourseID string
	Status   StudentStatus
}
