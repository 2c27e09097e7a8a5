package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	attStatusTag  = "attstatus"
	attStatusText = "invalid attendance status"
)

// InitValidators registers attendance-specific tags on the global validator.
// core.InitValidators must have been called first.
func InitValidators() {
	_ = core.Validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(attStatusTag, attStatusText)
}

func attStatusValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, s := range AllStatuses {
		if s == val {
			return true
		}
	}
	return false
}
