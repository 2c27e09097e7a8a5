package maintenance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	mainttimeTag  = "mainttime"
	mainttimeText = `must be "YYYY-MM-DDTHH:MM", "YYYY-MM-DD HH:MM:SS" or ISO-8601`
)

// InitValidators registers maintenance-specific tags on the global validator.
// core.InitValidators must have been called first.
func InitValidators() {
	_ = core.Validate.RegisterValidation(mainttimeTag, mainttimeValidation)
	core.RegisterCustomTranslation(mainttimeTag, mainttimeText)
}

// mainttimeValidation checks well-formedness only; the location is irrelevant.
func mainttimeValidation(fl validator.FieldLevel) bool {
	_, err := ParseInstant(fl.Field().String(), time.UTC)
	return err == nil
}
