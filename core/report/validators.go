package report

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/reportcard/core"
)

var (
	gradeTag  = "grade"
	gradeText = "unknown grade"

	rosterTag  = "roster"
	rosterText = "at least one student is required"
)

// InitValidators registers the report validation tags.
// core.InitValidators must have been called on validate first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)

	_ = validate.RegisterValidation(rosterTag, rosterValidation)
	core.RegisterCustomTranslation(validate, translator, rosterTag, rosterText)
}

func gradeValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		_, known := NormalizeGrade(str)
		return known
	}
	return false
}

func rosterValidation(fl validator.FieldLevel) bool {
	if students, ok := fl.Field().Interface().([]StudentInput); ok {
		return len(students) > 0
	}
	return false
}
