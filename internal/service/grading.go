package service

import "github.com/noah-isme/sis-portal/internal/models"

// CalculateTotal sums the five mark components; absent components count as zero.
func CalculateTotal(marks models.Marks) int {
	return models.Value(marks.Quiz1) +
		models.Value(marks.Quiz2) +
		models.Value(marks.Midterm) +
		models.Value(marks.Final) +
		models.Value(marks.Assignment)
}

// CalculateGrade maps a total out of models.MaxTotal to the highest band whose lower bound it meets.
func CalculateGrade(totalMarks int) models.Grade {
	percentage := float64(totalMarks) / float64(models.MaxTotal) * 100
	for _, band := range models.GradeBands {
		if percentage >= band.LowerBound {
			return band.Grade
		}
	}
	return models.GradeF
}

// GetPercentage converts a total to a rounded percentage of models.MaxTotal.
func GetPercentage(totalMarks int) int {
	return roundPercent(float64(totalMarks) / float64(models.MaxTotal) * 100)
}

// GradePoints returns the GPA points for grade. Unknown grades score zero.
func GradePoints(grade models.Grade) float64 {
	for _, band := range models.GradeBands {
		if band.Grade == grade {
			return band.Points
		}
	}
	return 0
}
