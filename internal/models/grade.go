package models

import (
	"fmt"
	"time"
)

// Grade is a letter grade derived from a total mark.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// Maximum marks per assessment component.
const (
	MaxQuiz1      = 20
	MaxQuiz2      = 20
	MaxMidterm    = 50
	MaxFinal      = 100
	MaxAssignment = 30
	MaxTotal      = MaxQuiz1 + MaxQuiz2 + MaxMidterm + MaxFinal + MaxAssignment
)

// GradeBand maps an inclusive lower percentage bound to a grade.
type GradeBand struct {
	Grade      Grade
	LowerBound float64
	Points     float64
}

// GradeBands is ordered highest first; the first band whose bound is met wins.
var GradeBands = []GradeBand{
	{Grade: GradeAPlus, LowerBound: 90, Points: 4.0},
	{Grade: GradeA, LowerBound: 85, Points: 4.0},
	{Grade: GradeAMinus, LowerBound: 80, Points: 3.7},
	{Grade: GradeBPlus, LowerBound: 75, Points: 3.3},
	{Grade: GradeB, LowerBound: 70, Points: 3.0},
	{Grade: GradeBMinus, LowerBound: 65, Points: 2.7},
	{Grade: GradeCPlus, LowerBound: 60, Points: 2.3},
	{Grade: GradeC, LowerBound: 55, Points: 2.0},
	{Grade: GradeCMinus, LowerBound: 50, Points: 1.7},
	{Grade: GradeD, LowerBound: 45, Points: 1.0},
	{Grade: GradeF, LowerBound: 0, Points: 0.0},
}

// Marks holds the assessment components of a result. A nil component counts as zero.
type Marks struct {
	Quiz1      *int `json:"quiz1,omitempty" validate:"omitempty,min=0,max=20"`
	Quiz2      *int `json:"quiz2,omitempty" validate:"omitempty,min=0,max=20"`
	Midterm    *int `json:"midterm,omitempty" validate:"omitempty,min=0,max=50"`
	Final      *int `json:"final,omitempty" validate:"omitempty,min=0,max=100"`
	Assignment *int `json:"assignment,omitempty" validate:"omitempty,min=0,max=30"`
}

// NewMarks builds a fully populated Marks value, rejecting components outside their maxima.
func NewMarks(quiz1, quiz2, midterm, final, assignment int) (Marks, error) {
	checks := []struct {
		name  string
		value int
		max   int
	}{
		{"quiz1", quiz1, MaxQuiz1},
		{"quiz2", quiz2, MaxQuiz2},
		{"midterm", midterm, MaxMidterm},
		{"final", final, MaxFinal},
		{"assignment", assignment, MaxAssignment},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > c.max {
			return Marks{}, fmt.Errorf("%s must be between 0 and %d, got %d", c.name, c.max, c.value)
		}
	}
	return Marks{Quiz1: &quiz1, Quiz2: &quiz2, Midterm: &midterm, Final: &final, Assignment: &assignment}, nil
}

// Value dereferences a component, treating nil as zero.
func Value(component *int) int {
	if component == nil {
		return 0
	}
	return *component
}

// ResultRecord stores a student's marks for a course. (CourseID, StudentID) identifies the record.
type ResultRecord struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	StudentID  string    `json:"studentId"`
	Quiz1      int       `json:"quiz1"`
	Quiz2      int       `json:"quiz2"`
	Midterm    int       `json:"midterm"`
	Final      int       `json:"final"`
	Assignment int       `json:"assignment"`
	TotalMarks int       `json:"totalMarks"`
	Grade      Grade     `json:"grade"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ResultID builds the composite record id.
func ResultID(courseID, studentID string) string {
	return courseID + "_" + studentID
}

// DetailedResult joins a result with the student's contact details.
type DetailedResult struct {
	ResultRecord
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
}

// CourseStatistics summarises all results of a course.
type CourseStatistics struct {
	TotalStudents     int           `json:"totalStudents"`
	AverageMarks      int           `json:"averageMarks"`
	HighestMarks      int           `json:"highestMarks"`
	LowestMarks       int           `json:"lowestMarks"`
	GradeDistribution map[Grade]int `json:"gradeDistribution"`
	PassRate          int           `json:"passRate"`
}

// GPAInfo is a student's credit-weighted grade point average.
// Formatted carries the two-decimal rendering shown on dashboards.
type GPAInfo struct {
	GPA          float64 `json:"gpa"`
	Formatted    string  `json:"formatted"`
	TotalCredits int     `json:"totalCredits"`
}

// RankInfo places a student within a course. Rank is nil when the student has no result.
type RankInfo struct {
	Rank          *int `json:"rank"`
	TotalStudents int  `json:"totalStudents"`
}
