package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"iotcare-data/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._%+-]*[a-zA-Z0-9])?@[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\d{2,3}-?\d{3,4}-?\d{4}$`)
	hexPattern   = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]+$`)
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// report JSON field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("between", validateBetween)
		_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("hexstr", func(fl validator.FieldLevel) bool {
			return hexPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("careemail", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("krphone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("jsonobject", func(fl validator.FieldLevel) bool {
			b := fl.Field().Bytes()
			return len(b) == 0 || JSON(b).IsObject()
		})
		validate = v
	})
	return validate
}

// validateBetween checks a numeric field against a closed "lo..hi" range
func validateBetween(fl validator.FieldLevel) bool {
	lo, hi, err := parseRange(fl.Param())
	if err != nil {
		return false
	}
	var v float64
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v = float64(f.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v = float64(f.Uint())
	case reflect.Float32, reflect.Float64:
		v = f.Float()
	default:
		return false
	}
	return v >= lo && v <= hi
}

func parseRange(param string) (float64, float64, error) {
	parts := strings.SplitN(param, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad range %q", param)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// IsValidEmail rejects consecutive dots and dots at either end of the local
// part, and requires local@domain.tld
func IsValidEmail(email string) bool {
	if email == "" || strings.Contains(email, "..") {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	local := email[:at]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	return emailPattern.MatchString(email)
}

// IsValidPhone Korean-format phone number, hyphens optional
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateStruct runs the tag rules of v and converts the first violation
// into a ValidationError for the given record kind.
func ValidateStruct(record string, v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Validation(record, fe.Field(), reason(fe))
	}
	return apperr.Validation(record, "", err.Error())
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "between":
		return "must be within " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(fe.Param(), " ", ", ") + "]"
	case "nonblank":
		return "must not be blank"
	case "hexstr":
		return "must be a hexadecimal string"
	case "careemail":
		return "is not a valid email address"
	case "krphone":
		return "is not a valid phone number"
	case "jsonobject":
		return "must be a JSON object"
	case "uuid", "uuid4":
		return "must be a UUID"
	case "nefield":
		return "must differ from " + snakeCase(fe.Param())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// ValidateRecord checks identity and field rules of a create input
func ValidateRecord(kind string, r Record) error {
	id := r.Identity()
	if id.Time.IsZero() {
		return apperr.Validation(kind, "time", "is required")
	}
	keyField := MustKind(kind).KeyColumn
	if strings.TrimSpace(id.Key) == "" {
		return apperr.Validation(kind, keyField, "is required")
	}
	if len(id.Key) > 64 {
		return apperr.Validation(kind, keyField, "must be at most 64 characters")
	}
	return ValidateStruct(kind, r)
}

// ValidatePatch rejects empty patches, then applies the field rules
func ValidatePatch(kind string, p any) error {
	if IsEmptyPatch(p) {
		return apperr.Validation(kind, "", "patch must set at least one field")
	}
	return ValidateStruct(kind, p)
}

// IsEmptyPatch reports whether every pointer, slice and map field is nil
func IsEmptyPatch(p any) bool {
	v := reflect.Indirect(reflect.ValueOf(p))
	if v.Kind() != reflect.Struct {
		return true
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if !f.IsNil() {
				return false
			}
		}
	}
	return true
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
