package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classbook/core"
)

var (
	dateTag  = "datetime"
	dateText = "enter a valid date (YYYY-MM-DD)"
)

// InitValidators registers the user translations. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterCustomTranslation(validate, translator, dateTag, dateText, true)
}
