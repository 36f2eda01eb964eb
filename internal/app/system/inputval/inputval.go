// Package inputval validates decoded request bodies with struct tags.
//
// Rules come from go-playground/validator plus a few registered here:
//
//	objectid   24-hex Mongo id
//	role       admin | member
//	taskstatus Pending | In Progress | Completed
//	priority   Low | Medium | High
//	httpurl    absolute http(s) URL
//
// A `label:"..."` tag names the field in messages.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return models.IsValidTaskStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return models.IsValidPriority(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// FieldError is one failed rule, already rendered for display.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when valid, otherwise a validation *apperr.Error carrying
// the first message.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apperr.Validation(r.First())
}

// Validate runs the struct's validate tags.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return res
}

// Struct is Validate(s).Err().
func Struct(s any) error {
	return Validate(s).Err()
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "objectid":
		return label + " is not a valid id."
	case "role":
		return label + ` must be "admin" or "member".`
	case "taskstatus":
		return label + " must be one of " + strings.Join(models.TaskStatuses, ", ") + "."
	case "priority":
		return label + " must be one of " + strings.Join(models.TaskPriorities, ", ") + "."
	case "httpurl":
		return label + " must be an http or https URL."
	case "dive", "unique":
		return label + " contains an invalid entry."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail reports whether s is a bare address (no display name) with
// no empty or doubled dots.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidObjectID reports whether s (trimmed) is a 24-hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidHTTPURL reports whether s (trimmed) is an absolute http(s) URL with a host.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
