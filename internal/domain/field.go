package domain

type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldIsActive  Field = "isActive"
)

// TextFields lists the string-valued form fields in display order.
var TextFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone}

func ParseField(s string) (Field, bool) {
	switch Field(s) {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldIsActive:
		return Field(s), true
	}
	return "", false
}

func (f Field) Label() string {
	switch f {
	case FieldFirstName:
		return "First name"
	case FieldLastName:
		return "Last name"
	case FieldEmail:
		return "Email"
	case FieldPhone:
		return "Phone"
	case FieldIsActive:
		return "Active"
	}
	return "This field"
}

type FieldErrorKind string

const (
	FieldRequired  FieldErrorKind = "required"
	FieldMinLength FieldErrorKind = "minlength"
	FieldEmailFmt  FieldErrorKind = "email"
	FieldPhoneFmt  FieldErrorKind = "phone"
)

type FieldError struct {
	Field Field
	Kind  FieldErrorKind
	// Param is the rule argument, e.g. the required length for minlength.
	Param string
}

func (e FieldError) Message() string {
	switch e.Kind {
	case FieldRequired:
		return e.Field.Label() + " is required"
	case FieldMinLength:
		return e.Field.Label() + " must be at least " + e.Param + " characters"
	case FieldEmailFmt:
		return e.Field.Label() + " is not a valid email address"
	case FieldPhoneFmt:
		return e.Field.Label() + " is not a valid phone number"
	}
	return e.Field.Label() + " is invalid"
}
