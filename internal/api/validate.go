package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nutrisched/nutrisched/internal/dates"
)

// init registers the isodate rule on gin's validator so request structs
// can require well-formed calendar dates at bind time.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("isodate", validISODate)
	}
}

func validISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true // emptiness is the required rule's concern
	}
	_, err := dates.ParseISO(s)
	return err == nil
}
