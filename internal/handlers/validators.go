package handlers

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Mozambican WhatsApp numbers: +258 followed by exactly nine digits.
var mzPhoneRegex = regexp.MustCompile(`^\+258[0-9]{9}$`)

// ValidWhatsApp reports whether s is a well-formed Mozambican phone
// number in international format.
func ValidWhatsApp(s string) bool {
	return mzPhoneRegex.MatchString(s)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mzphone", func(fl validator.FieldLevel) bool {
		return ValidWhatsApp(fl.Field().String())
	})
	return v
}

func validationMessages(err error) map[string]string {
	errorMessages := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errorMessages["request"] = err.Error()
		return errorMessages
	}
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return errorMessages
}
