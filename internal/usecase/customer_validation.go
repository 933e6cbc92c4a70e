package usecase

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/mo"

	"github.com/phenrril/clientes/internal/domain"
)

// Loose international format: +33 6 12 34 56 78 or 0612345678.
var phoneRe = regexp.MustCompile(`^(\+?\d{1,3}[\s.-]?)?(\d{2}[\s.-]?){4,5}\d{2}$`)

// FormValues is the editable state of the customer form. The validate tags
// are the field rules; the field tags name the fields in error reports.
type FormValues struct {
	FirstName string `field:"firstName" validate:"required,min=2"`
	LastName  string `field:"lastName" validate:"required,min=2"`
	Email     string `field:"email" validate:"required,email"`
	Phone     string `field:"phone" validate:"omitempty,phone"`
	IsActive  bool   `field:"isActive"`
}

func defaultFormValues() FormValues {
	return FormValues{IsActive: true}
}

func formValuesOf(c domain.Customer) FormValues {
	return FormValues{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
	}
}

func (v FormValues) Get(f domain.Field) string {
	switch f {
	case domain.FieldFirstName:
		return v.FirstName
	case domain.FieldLastName:
		return v.LastName
	case domain.FieldEmail:
		return v.Email
	case domain.FieldPhone:
		return v.Phone
	case domain.FieldIsActive:
		if v.IsActive {
			return "true"
		}
		return "false"
	}
	return ""
}

func (v FormValues) trimmed() FormValues {
	v.FirstName = strings.TrimSpace(v.FirstName)
	v.LastName = strings.TrimSpace(v.LastName)
	v.Email = strings.TrimSpace(v.Email)
	v.Phone = strings.TrimSpace(v.Phone)
	return v
}

func (v FormValues) draft(record *domain.Customer) domain.CustomerDraft {
	d := domain.CustomerDraft{
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Email:     v.Email,
		Phone:     v.Phone,
		IsActive:  mo.Some(v.IsActive),
	}
	if record != nil {
		d.ID = mo.Some(record.ID)
	}
	return d
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		if name := sf.Tag.Get("field"); name != "" {
			return name
		}
		return sf.Name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidPhone reports whether s matches the phone pattern once internal
// whitespace is removed.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(strings.Join(strings.Fields(s), ""))
}

// ValidateValues runs the field rules and returns one error per failing field.
func ValidateValues(v FormValues) map[domain.Field]domain.FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[domain.Field]domain.FieldError, len(verrs))
	for _, fe := range verrs {
		f := domain.Field(fe.Field())
		out[f] = domain.FieldError{Field: f, Kind: errorKind(fe.Tag()), Param: fe.Param()}
	}
	return out
}

func errorKind(tag string) domain.FieldErrorKind {
	switch tag {
	case "required":
		return domain.FieldRequired
	case "min":
		return domain.FieldMinLength
	case "email":
		return domain.FieldEmailFmt
	case "phone":
		return domain.FieldPhoneFmt
	}
	return domain.FieldErrorKind(tag)
}
