// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

var weekdayNames = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

var registerOnce sync.Once

// Register installs the custom tags on gin's validator engine. Safe to call more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("clock", validateClock); err != nil {
		return err
	}
	if err := v.RegisterValidation("isodate", validateDate); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

func validateClock(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	return IsWeekday(fl.Field().String())
}

// IsClock reports whether s is a zero-padded 24h HH:MM time.
func IsClock(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// IsWeekday reports whether s names a day of the week (case-insensitive).
func IsWeekday(s string) bool {
	return weekdayNames[strings.ToLower(s)]
}
