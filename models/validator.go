package models

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once
var validate *validator.Validate

// Validator returns the shared validator with restomarket's custom tags
// registered. It uses the `binding` tag name so the same tags drive both gin
// binding and direct struct validation.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")

		if err := validate.RegisterValidation("inn", innTag); err != nil {
			panic(err)
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func ValidateStruct(obj interface{}) error {
	if err := Validator().Struct(obj); err != nil {
		return err
	}
	return nil
}

func innTag(fl validator.FieldLevel) bool {
	return ValidINN(fl.Field().String())
}

// ValidINN checks a Russian tax id: 10 digits for companies, 12 for sole
// traders, with the standard weighted checksums.
func ValidINN(inn string) bool {
	for _, r := range inn {
		if r < '0' || r > '9' {
			return false
		}
	}
	switch len(inn) {
	case 10:
		return innControl(inn, []int{2, 4, 10, 3, 5, 9, 4, 6, 8}) == digit(inn, 9)
	case 12:
		return innControl(inn, []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8}) == digit(inn, 10) &&
			innControl(inn, []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8}) == digit(inn, 11)
	default:
		return false
	}
}

func innControl(inn string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += w * digit(inn, i)
	}
	return sum % 11 % 10
}

func digit(s string, i int) int {
	return int(s[i] - '0')
}
