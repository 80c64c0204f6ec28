package student

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"student-records/internal/apperror"

	"github.com/go-playground/validator/v10"
)

const (
	MinGPA = 0.0
	MaxGPA = 4.0

	yearsBack    = 50
	yearsForward = 10
)

// whitespace also covers Unicode separators (NBSP, U+2028) and BOM, which
// RE2's \s does not.
const whitespace = `\s\p{Z}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`^[^` + whitespace + `@]+@[^` + whitespace + `@]+\.[^` + whitespace + `@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z` + whitespace + `]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// fields is the common shape both validation modes check. Field order is
// the order failures are reported in.
type fields struct {
	Email          *string  `validate:"omitnil,student_email"`
	Name           *string  `validate:"omitnil,student_name"`
	GraduationYear *int     `validate:"omitnil,graduation_year"`
	PhoneNumber    *string  `validate:"omitnil,phone10"`
	GPA            *float64 `validate:"omitnil,gte=0,lte=4"`
}

// Validator applies the student field rules. It is pure; the clock only
// decides the graduation year window.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewValidator() *Validator {
	return NewValidatorWithClock(time.Now)
}

func NewValidatorWithClock(now func() time.Time) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}

	mustRegister(v.validate, "student_email", matches(emailPattern))
	mustRegister(v.validate, "student_name", matches(namePattern))
	mustRegister(v.validate, "phone10", matches(phonePattern))
	mustRegister(v.validate, "graduation_year", func(fl validator.FieldLevel) bool {
		minYear, maxYear := v.YearBounds()
		year := fl.Field().Int()
		return year >= int64(minYear) && year <= int64(maxYear)
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// YearBounds returns the inclusive graduation year window.
func (v *Validator) YearBounds() (int, int) {
	year := v.now().Year()
	return year - yearsBack, year + yearsForward
}

func (v *Validator) ValidateCreate(req CreateStudentRequest) error {
	if req.Name == "" || req.Email == "" {
		return apperror.Validation("Name and email are required")
	}

	return v.check(fields{
		Email:          &req.Email,
		Name:           &req.Name,
		GraduationYear: req.GraduationYear,
		PhoneNumber:    req.PhoneNumber,
		GPA:            req.GPA,
	})
}

func (v *Validator) ValidateUpdate(req UpdateStudentRequest) error {
	return v.check(fields{
		Email:          req.Email,
		Name:           req.Name,
		GraduationYear: req.GraduationYear,
		PhoneNumber:    req.PhoneNumber,
		GPA:            req.GPA,
	})
}

func (v *Validator) check(f fields) error {
	err := v.validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Internal("validation failed", err)
	}

	return apperror.Validation(v.message(fieldErrs[0].StructField()))
}

func (v *Validator) message(field string) string {
	switch field {
	case "Email":
		return "Invalid email format"
	case "Name":
		return "Name must contain only letters and spaces"
	case "GraduationYear":
		minYear, maxYear := v.YearBounds()
		return fmt.Sprintf("Graduation year must be between %d and %d", minYear, maxYear)
	case "PhoneNumber":
		return "Invalid phone number format"
	case "GPA":
		return fmt.Sprintf("GPA must be between %g and %g", MinGPA, MaxGPA)
	default:
		return "Invalid " + field
	}
}
