package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/templui/goalsetter/internal/apperror"
	"github.com/templui/goalsetter/internal/model"
)

// enumerated is implemented by the model's string enums.
type enumerated interface {
	IsValid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names, the names clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumerated)
		return ok && e.IsValid()
	})
	if err != nil {
		panic(fmt.Sprintf("register enum validation: %v", err))
	}

	return v
}

// Goal checks the goal's field invariants and returns a validation error
// naming the first offending field.
func Goal(g *model.Goal) error {
	err := validate.Struct(g)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fieldPath(fe)
	return apperror.Validation(field, "%s", fieldMessage(field, fe))
}

// fieldOrder ranks Goal's fields by their position in the struct, which is
// also the order the validator reports them in.
var fieldOrder = goalFieldOrder()

func goalFieldOrder() map[string]int {
	t := reflect.TypeOf(model.Goal{})
	order := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		order[name] = i
	}
	return order
}

// GoalBefore validates g and returns the error only when it names a field
// that precedes field. Used on a goal whose build failed at field, so that
// the first invalid field is the one reported.
func GoalBefore(g *model.Goal, field string) error {
	appErr, ok := apperror.As(Goal(g))
	if !ok {
		return nil
	}

	got, known := fieldOrder[topLevelField(appErr.Field)]
	limit, limited := fieldOrder[topLevelField(field)]
	if !known || !limited || got >= limit {
		return nil
	}
	return appErr
}

// topLevelField turns "milestones[1].title" into "milestones".
func topLevelField(path string) string {
	if i := strings.IndexAny(path, "[."); i >= 0 {
		return path[:i]
	}
	return path
}

// fieldPath strips the struct name from the namespace: "Goal.milestones[0].title"
// becomes "milestones[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, lowerFirst(fe.Param()))
	case "enum":
		return fmt.Sprintf("%s must be one of: %s", field, allowedValues(fe.Value()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func allowedValues(v any) string {
	var values []string
	switch v.(type) {
	case model.Category:
		for _, c := range model.Categories {
			values = append(values, string(c))
		}
	case model.Priority:
		for _, p := range model.Priorities {
			values = append(values, string(p))
		}
	case model.DeadlineFlexibility:
		values = []string{string(model.FlexibilityHard), string(model.FlexibilitySoft)}
	case model.GoalStatus:
		for _, s := range model.GoalStatuses {
			values = append(values, string(s))
		}
	}
	return strings.Join(values, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
