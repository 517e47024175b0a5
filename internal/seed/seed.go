// Package seed provides the default portal data written on first start.
package seed

import (
	"math/rand"
	"time"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/service"
	"github.com/noah-isme/sis-portal/internal/store"
)

// PresentRate is the share of generated attendance marked present.
const PresentRate = 0.8

// AttendanceDays is how many days back generated attendance reaches.
const AttendanceDays = 30

// Func returns a store.SeedFunc that builds every default collection at call time.
func Func(clock func() time.Time, rng *rand.Rand) store.SeedFunc {
	return func() map[string]interface{} {
		return Defaults(clock(), rng)
	}
}

// Defaults builds the default payload for each seeded collection.
func Defaults(now time.Time, rng *rand.Rand) map[string]interface{} {
	return map[string]interface{}{
		store.KeyUsers:      Users(),
		store.KeyStudents:   Students(),
		store.KeyTeachers:   Teachers(),
		store.KeyCourses:    Courses(),
		store.KeyAttendance: Attendance(now, rng),
		store.KeyResults:    Results(now),
	}
}

// Users returns the default credentials.
func Users() []models.User {
	return []models.User{
		{ID: "admin001", Password: "admin123", Role: models.RoleAdmin, Name: "System Admin"},
		{ID: "teacher001", Password: "teacher123", Role: models.RoleTeacher, Name: "Dr. Sarah Johnson"},
		{ID: "teacher002", Password: "teacher123", Role: models.RoleTeacher, Name: "Prof. Michael Chen"},
		{ID: "teacher003", Password: "teacher123", Role: models.RoleTeacher, Name: "Dr. Emily Davis"},
		{ID: "student001", Password: "student123", Role: models.RoleStudent, Name: "John Smith"},
		{ID: "student002", Password: "student123", Role: models.RoleStudent, Name: "Emma Wilson"},
		{ID: "student003", Password: "student123", Role: models.RoleStudent, Name: "James Brown"},
		{ID: "student004", Password: "student123", Role: models.RoleStudent, Name: "Olivia Martinez"},
		{ID: "student005", Password: "student123", Role: models.RoleStudent, Name: "William Taylor"},
	}
}

// Students returns the default student records.
func Students() []models.Student {
	allCourses := func() []string { return []string{"CS101", "CS201", "CS301"} }
	return []models.Student{
		{ID: "student001", Name: "John Smith", Email: "john.smith@university.edu", Department: "Computer Science", Semester: 5, EnrolledCourses: allCourses(), Status: models.StudentStatusEnrolled, EnrollmentDate: "2022-09-01"},
		{ID: "student002", Name: "Emma Wilson", Email: "emma.wilson@university.edu", Department: "Computer Science", Semester: 5, EnrolledCourses: allCourses(), Status: models.StudentStatusEnrolled, EnrollmentDate: "2022-09-01"},
		{ID: "student003", Name: "James Brown", Email: "james.brown@university.edu", Department: "Computer Science", Semester: 3, EnrolledCourses: []string{"CS101", "CS201"}, Status: models.StudentStatusOnProbation, EnrollmentDate: "2023-09-01"},
		{ID: "student004", Name: "Olivia Martinez", Email: "olivia.martinez@university.edu", Department: "Information Technology", Semester: 7, EnrolledCourses: []string{"CS201", "CS301"}, Status: models.StudentStatusEnrolled, EnrollmentDate: "2021-09-01"},
		{ID: "student005", Name: "William Taylor", Email: "william.taylor@university.edu", Department: "Computer Science", Semester: 5, EnrolledCourses: allCourses(), Status: models.StudentStatusEnrolled, EnrollmentDate: "2022-09-01"},
	}
}

// Teachers returns the default teacher profiles.
func Teachers() []models.Teacher {
	return []models.Teacher{
		{ID: "teacher001", Name: "Dr. Sarah Johnson", Email: "sarah.johnson@university.edu", Department: "Computer Science", Courses: []string{"CS101"}, Qualification: "Ph.D. in Computer Science"},
		{ID: "teacher002", Name: "Prof. Michael Chen", Email: "michael.chen@university.edu", Department: "Computer Science", Courses: []string{"CS201"}, Qualification: "Ph.D. in Software Engineering"},
		{ID: "teacher003", Name: "Dr. Emily Davis", Email: "emily.davis@university.edu", Department: "Computer Science", Courses: []string{"CS301"}, Qualification: "Ph.D. in Data Science"},
	}
}

// Courses returns the default course catalogue.
func Courses() []models.Course {
	return []models.Course{
		{ID: "CS101", Code: "CS101", Name: "Introduction to Programming", Credits: 3, TeacherID: "teacher001", TeacherName: "Dr. Sarah Johnson", Department: "Computer Science", Semester: "Fall 2024", TotalClasses: 30},
		{ID: "CS201", Code: "CS201", Name: "Data Structures & Algorithms", Credits: 4, TeacherID: "teacher002", TeacherName: "Prof. Michael Chen", Department: "Computer Science", Semester: "Fall 2024", TotalClasses: 35},
		{ID: "CS301", Code: "CS301", Name: "Database Management Systems", Credits: 3, TeacherID: "teacher003", TeacherName: "Dr. Emily Davis", Department: "Computer Science", Semester: "Fall 2024", TotalClasses: 28},
	}
}

// Attendance generates weekday records for every default course and student over
// the last AttendanceDays days, each present with probability PresentRate.
func Attendance(now time.Time, rng *rand.Rand) []models.AttendanceRecord {
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}
	now = now.UTC()
	courses := []string{"CS101", "CS201", "CS301"}
	students := []string{"student001", "student002", "student003", "student004", "student005"}

	records := make([]models.AttendanceRecord, 0)
	for i := AttendanceDays; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		date := day.Format(models.DateLayout)
		for _, courseID := range courses {
			for _, studentID := range students {
				status := models.AttendanceStatusAbsent
				if rng.Float64() > 1-PresentRate {
					status = models.AttendanceStatusPresent
				}
				records = append(records, models.AttendanceRecord{
					ID:        models.AttendanceID(courseID, studentID, date),
					CourseID:  courseID,
					StudentID: studentID,
					Date:      date,
					Status:    status,
					MarkedBy:  "teacher001",
					MarkedAt:  now,
				})
			}
		}
	}
	return records
}

// Results returns the default marks with totals and grades derived.
func Results(now time.Time) []models.ResultRecord {
	raw := []struct {
		id, course, student                      string
		quiz1, quiz2, midterm, final, assignment int
	}{
		{"r1", "CS101", "student001", 18, 17, 42, 85, 28},
		{"r2", "CS101", "student002", 20, 19, 45, 90, 30},
		{"r3", "CS101", "student003", 12, 14, 30, 55, 20},
		{"r4", "CS101", "student005", 16, 18, 40, 78, 25},
		{"r5", "CS201", "student001", 17, 16, 38, 80, 27},
		{"r6", "CS201", "student002", 19, 20, 44, 88, 29},
		{"r7", "CS201", "student003", 10, 12, 28, 50, 18},
		{"r8", "CS201", "student004", 15, 17, 36, 75, 24},
		{"r9", "CS201", "student005", 18, 17, 41, 82, 26},
		{"r10", "CS301", "student001", 19, 18, 43, 87, 28},
		{"r11", "CS301", "student002", 20, 20, 48, 95, 30},
		{"r12", "CS301", "student004", 16, 15, 35, 72, 23},
		{"r13", "CS301", "student005", 17, 19, 40, 80, 25},
	}

	results := make([]models.ResultRecord, 0, len(raw))
	for _, r := range raw {
		total := r.quiz1 + r.quiz2 + r.midterm + r.final + r.assignment
		results = append(results, models.ResultRecord{
			ID:         r.id,
			CourseID:   r.course,
			StudentID:  r.student,
			Quiz1:      r.quiz1,
			Quiz2:      r.quiz2,
			Midterm:    r.midterm,
			Final:      r.final,
			Assignment: r.assignment,
			TotalMarks: total,
			Grade:      service.CalculateGrade(total),
			UpdatedAt:  now.UTC(),
		})
	}
	return results
}
