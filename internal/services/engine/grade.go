package engine

import "SwingDesk/internal/domain/models"

var gradeSteps = []struct {
	min   int
	grade models.Grade
}{
	{90, models.GradeAPlus},
	{80, models.GradeA},
	{75, models.GradeBPlus},
	{65, models.GradeB},
	{55, models.GradeC},
}

// GradeFromScore maps a score to its letter grade, highest threshold first.
func GradeFromScore(score int) models.Grade {
	for _, s := range gradeSteps {
		if score >= s.min {
			return s.grade
		}
	}
	return models.GradeD
}
