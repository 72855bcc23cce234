package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v[field] = "invalid_choice"
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// RegisterChoice adds a struct tag that accepts only the listed values.
// Empty strings pass; combine with required when the field is mandatory.
func RegisterChoice(tag string, allowed []string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	err := engine().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, ok := set[s]
		return ok
	})
	if err != nil {
		return fmt.Errorf("register %q: %w", tag, err)
	}
	choiceTags.Store(tag, struct{}{})
	return nil
}

// Struct validates s with its `validate` tags and reports failures keyed by
// json field path (detallesPago[0].monto).
func Struct(s any) Violations {
	v := Violations{}
	err := engine().Struct(s)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range verrs {
		v[fieldPath(fe.Namespace())] = code(fe.Tag())
	}
	return v
}

func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func code(tag string) string {
	switch tag {
	case "required", "required_without", "required_if":
		return "required"
	case "gt", "gte", "min":
		return "must_be_positive"
	case "oneof":
		return "invalid_choice"
	case "datetime":
		return "invalid_date"
	default:
		if _, ok := choiceTags.Load(tag); ok {
			return "invalid_choice"
		}
		return "invalid"
	}
}

var choiceTags sync.Map
