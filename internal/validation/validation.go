// Package validation enforces the Student shape rules with
// go-playground/validator and reports failures as
// *storage.ValidationError so every backend surfaces the same messages.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/qe-students/students-api/internal/storage"
	"github.com/qe-students/students-api/internal/types"
)

const (
	createSummary = "Student validation failed"
	updateSummary = "Validation failed"

	fullNameRequired    = "Full name is required"
	studentCodeRequired = "Student code is required"
	studentCodeInvalid  = "Invalid student code format (e.g., ST12345)"
	isActiveNull        = "Active flag must be true or false"
)

// StudentCodePattern is the only accepted student code shape.
var StudentCodePattern = regexp.MustCompile(`^ST\d{5}$`)

// validate is safe for concurrent use and caches struct metadata,
// so one instance is shared by every caller.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name ("studentCode") instead of the
	// Go field name ("StudentCode").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("studentcode", func(fl validator.FieldLevel) bool {
		return StudentCodePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic("validation: register studentcode: " + err.Error())
	}

	return v
}

// ValidateInput checks a create payload. It returns nil or a
// *storage.ValidationError listing every failing field.
func ValidateInput(in types.StudentInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]storage.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, storage.FieldError{
			Field:   fe.Field(),
			Message: message(fe.Field(), fe.Tag()),
		})
	}
	return &storage.ValidationError{Summary: createSummary, Fields: fields}
}

// ValidatePatch checks only the fields an update actually supplies,
// using the same rules as ValidateInput. A field supplied as null is
// supplied: null fails "required", and isActive cannot be null.
func ValidatePatch(p types.StudentPatch) error {
	var fields []storage.FieldError

	if p.FullName.Set {
		if fe := checkOptional("fullName", p.FullName, "required"); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if p.StudentCode.Set {
		if fe := checkOptional("studentCode", p.StudentCode, "required,studentcode"); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if p.IsActive.Null {
		fields = append(fields, storage.FieldError{Field: "isActive", Message: isActiveNull})
	}

	if len(fields) == 0 {
		return nil
	}
	return &storage.ValidationError{Summary: updateSummary, Fields: fields}
}

func checkOptional(field string, o types.Optional[string], tag string) *storage.FieldError {
	if o.Null {
		return &storage.FieldError{Field: field, Message: message(field, "required")}
	}
	return checkVar(field, o.Value, tag)
}

func checkVar(field, value, tag string) *storage.FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &storage.FieldError{Field: field, Message: err.Error()}
	}
	return &storage.FieldError{Field: field, Message: message(field, verrs[0].Tag())}
}

func message(field, tag string) string {
	switch tag {
	case "required":
		switch field {
		case "fullName":
			return fullNameRequired
		case "studentCode":
			return studentCodeRequired
		}
		return "field " + field + " is required"
	case "studentcode":
		return studentCodeInvalid
	default:
		return "field " + field + " is invalid"
	}
}
