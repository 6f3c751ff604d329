package catalog

import (
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classbook/core"
)

var (
	chapterTag            = "chapter"
	errInvalidChapterText = "select a chapter or \"all\""
	errUnknownChapterText = "unknown chapter"

	materialCategoryTag  = "material_category"
	materialCategoryText = "unknown material category"
)

// InitValidators registers the catalog validators. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(chapterTag, chapterValidation)
	core.RegisterCustomTranslation(validate, translator, chapterTag, errInvalidChapterText)

	_ = validate.RegisterValidation(materialCategoryTag, materialCategoryValidation)
	core.RegisterCustomTranslation(validate, translator, materialCategoryTag, materialCategoryText)
}

// chapterValidation accepts "all" or a positive chapter id. Existence is checked against the catalog later.
func chapterValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == chapterAll {
		return true
	}
	id, err := strconv.Atoi(s)
	return err == nil && id > 0
}

func materialCategoryValidation(fl validator.FieldLevel) bool {
	return MaterialCategory(fl.Field().String()).IsValid()
}
