package models

// DefaultCredits applies to courses stored without a credit count.
const DefaultCredits = 3

// Course is a taught unit that students enroll in.
type Course struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Credits      int    `json:"credits,omitempty"`
	TeacherID    string `json:"teacherId"`
	TeacherName  string `json:"teacherName,omitempty"`
	Department   string `json:"department,omitempty"`
	Semester     string `json:"semester,omitempty"`
	TotalClasses int    `json:"totalClasses"`
}

// CreditHours returns the course credits, falling back to DefaultCredits.
func (c Course) CreditHours() int {
	if c.Credits <= 0 {
		return DefaultCredits
	}
	return c.Credits
}

// Teacher is the staff profile behind a teacher account.
type Teacher struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Department    string   `json:"department"`
	Courses       []string `json:"courses"`
	Qualification string   `json:"qualification"`
}
