package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-opsforms/pkg/fieldpath"
)

// MessageFunc renders a human message for a failed constraint.
type MessageFunc func(fe validator.FieldError) string

// Issue is one failed constraint at a field path.
type Issue struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// StructValidator runs go-playground/validator over submitted form values and
// reports failures as an errors tree keyed by the same paths the form uses.
// It lives on the page side of the form engine: the widgets only read the
// resulting tree through the form state.
type StructValidator struct {
	validate *validator.Validate
	message  MessageFunc
}

// StructValidatorOption configures a StructValidator.
type StructValidatorOption func(*StructValidator)

// WithMessages overrides the default message rendering.
func WithMessages(fn MessageFunc) StructValidatorOption {
	return func(v *StructValidator) {
		if fn != nil {
			v.message = fn
		}
	}
}

// NewStructValidator builds a validator that names fields after their json
// tags.
func NewStructValidator(opts ...StructValidatorOption) *StructValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, skip := jsonName(field)
		if skip {
			return ""
		}
		return name
	})
	v := &StructValidator{validate: validate, message: DefaultMessage}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Struct validates a typed record. The returned issues are nil when the
// record passes; err is reserved for misuse (non-struct input).
func (v *StructValidator) Struct(record any) ([]Issue, error) {
	err := v.validate.Struct(record)
	if err == nil {
		return nil, nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("validation: %w", err)
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return nil, fmt.Errorf("validation: %w", err)
	}
	issues := make([]Issue, 0, len(failures))
	for _, fe := range failures {
		issues = append(issues, Issue{
			Path:    namespacePath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: v.message(fe),
		})
	}
	return issues, nil
}

// Values decodes a form values tree into target (a pointer to a struct) and
// validates it. The errors tree is empty when the values pass.
func (v *StructValidator) Values(values map[string]any, target any) (map[string]any, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("validation: encode values: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("validation: decode values: %w", err)
	}
	issues, err := v.Struct(target)
	if err != nil {
		return nil, err
	}
	return ErrorsTree(issues), nil
}

// ErrorsTree folds issues into a nested tree. The first issue per path wins.
func ErrorsTree(issues []Issue) map[string]any {
	out := make(map[string]any)
	for _, issue := range issues {
		if issue.Path == "" || fieldpath.Exists(out, issue.Path) {
			continue
		}
		_ = fieldpath.Set(out, issue.Path, issue.Message)
	}
	return out
}

// DefaultMessage renders short English messages for common tags.
func DefaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with", "required_without":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email"
	case "e164":
		return "must be a valid phone number"
	case "datetime":
		return "must be a valid date"
	}
	return "is invalid"
}

// namespacePath turns "budget.lines[0].qty" into "lines.0.qty".
func namespacePath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	} else {
		return ""
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	return replacer.Replace(namespace)
}
