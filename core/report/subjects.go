package report

import (
	"regexp"
	"strconv"
)

var (
	primarySubjects = []string{
		"Integrated Science",
		"Mathematics",
		"English Language",
		"Ghanaian Language",
		"Creative Art",
		"Religious and Moral Education",
		"History",
		"Computing",
		"OWOP",
		"Dictation",
	}
	jhsSubjects = []string{
		"Integrated Science",
		"Mathematics",
		"English Language",
		"Ghanaian Language",
		"Creative Art",
		"Social Studies",
		"Computing",
		"Career Technology",
		"Religious and Moral Education",
		"Dictation",
	}

	minGrade, maxGrade, firstJHSGrade = 1, 9, 7

	gradeRegex = regexp.MustCompile(`(?i)^\s*(?:grade|basic|class)?\s*(\d{1,2})\s*$`)
)

// NormalizeGrade turns "7", "grade 7" or "Basic 7" into "Grade 7".
func NormalizeGrade(grade string) (string, bool) {
	m := gradeRegex.FindStringSubmatch(grade)
	if m == nil {
		return grade, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < minGrade || n > maxGrade {
		return grade, false
	}
	return gradeName(n), true
}

func gradeName(n int) string { return "Grade " + strconv.Itoa(n) }

// Grades lists every grade of the catalog, in order.
func Grades() []string {
	grades := make([]string, 0, maxGrade-minGrade+1)
	for n := minGrade; n <= maxGrade; n++ {
		grades = append(grades, gradeName(n))
	}
	return grades
}

// Subjects returns a copy of the default subject list of a grade.
func Subjects(grade string) ([]string, bool) {
	name, ok := NormalizeGrade(grade)
	if !ok {
		return nil, false
	}
	n, _ := strconv.Atoi(name[len("Grade "):])

	list := primarySubjects
	if n >= firstJHSGrade {
		list = jhsSubjects
	}
	return append([]string(nil), list...), true
}
