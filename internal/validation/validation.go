// Package validation holds the field rules for a student record.
//
// Every rule is a pure function: it looks at one decoded request field and
// returns nil on success or an *Error carrying a human-readable reason.
// Rules never touch storage, so handlers can run them before any write.
//
// The checks themselves are expressed as go-playground/validator tags and
// run through a single shared *validator.Validate (the library caches
// per-tag parsing, so one instance is reused for the process lifetime).
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Field names used in Error.Field.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldDob          = "dob"
	FieldStudentClass = "studentClass"
	FieldFeePaid      = "feePaid"
)

// phonePattern accepts an optional leading "+" followed by 7-15 digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for empty tags or nil funcs, neither of
	// which can happen here.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := types.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// Error is a failed rule. Reason is safe to show to API clients.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func fail(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

// NameAndPhone checks name first, then phone.
func NameAndPhone(name, phone types.Optional[string]) error {
	if err := Name(name); err != nil {
		return err
	}
	return Phone(phone)
}

// Name fails when the name is absent, blank, not text or contains
// non-printable characters.
func Name(name types.Optional[string]) error {
	if !name.Ok() || validate.Var(name.Value, "required,notblank") != nil {
		return fail(FieldName, "Name is required")
	}
	if validate.Var(name.Value, "printable") != nil {
		return fail(FieldName, "Name must contain printable characters only")
	}
	return nil
}

// Phone fails when the phone is absent, empty or not a phone number.
func Phone(phone types.Optional[string]) error {
	if !phone.Ok() || validate.Var(phone.Value, "required") != nil {
		return fail(FieldPhone, "Phone is required")
	}
	if validate.Var(phone.Value, "phone") != nil {
		return fail(FieldPhone, "Phone number is invalid")
	}
	return nil
}

// Dob fails when the date of birth is absent or is not a real calendar
// date. On success it returns the parsed date.
func Dob(dob types.Optional[string]) (types.Date, error) {
	if !dob.Ok() || validate.Var(strings.TrimSpace(dob.Value), "required") != nil {
		return types.Date{}, fail(FieldDob, "Date of birth is required")
	}
	value := strings.TrimSpace(dob.Value)
	if validate.Var(value, "date") != nil {
		return types.Date{}, fail(FieldDob, "Date of birth must be a valid date (YYYY-MM-DD)")
	}
	return types.ParseDate(value)
}

// Class fails when the class is absent or blank.
func Class(studentClass types.Optional[string]) error {
	if !studentClass.Ok() || validate.Var(studentClass.Value, "required,notblank") != nil {
		return fail(FieldStudentClass, "Class is required")
	}
	return nil
}

// FeePaid fails only when the value is present but not a boolean.
// An absent value is valid and defaults to false later.
func FeePaid(feePaid types.Optional[bool]) error {
	if feePaid.Set && !feePaid.Ok() {
		return fail(FieldFeePaid, "Fee paid must be a boolean")
	}
	return nil
}
