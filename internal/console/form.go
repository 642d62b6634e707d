// internal/console/form.go
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"job-listings/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrBusy is returned by Submit while a previous submission is in flight.
	ErrBusy = errors.New("a save is already in progress")
	// ErrValidation is returned by Submit when local validation fails and
	// nothing was sent.
	ErrValidation = errors.New("form has invalid fields")
	// ErrUnknownField is returned by Set for a field name the form lacks.
	ErrUnknownField = errors.New("unknown field")
)

// Form field names, as used by Set and in field errors.
const (
	FieldTitle       = "title"
	FieldCompany     = "company"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldSalaryFrom  = "salaryFrom"
	FieldSalaryTo    = "salaryTo"
	FieldActive      = "isActive"
)

// FieldOrder is the order fields are rendered in.
var FieldOrder = []string{
	FieldTitle, FieldCompany, FieldLocation, FieldDescription,
	FieldSalaryFrom, FieldSalaryTo, FieldActive,
}

const (
	summaryInvalid  = "Please fix the errors below."
	summaryRejected = "Validation failed"
	summaryFailed   = "Save failed"
)

// Phase is the mode the form is in.
type Phase int

const (
	PhaseCreate Phase = iota
	PhaseEdit
)

func (p Phase) String() string {
	if p == PhaseEdit {
		return "edit"
	}
	return "create"
}

// PostingSaver persists drafts.
type PostingSaver interface {
	Create(ctx context.Context, draft domain.Draft) (*domain.JobPosting, error)
	Update(ctx context.Context, id string, draft domain.Draft) (*domain.JobPosting, error)
}

// FormValues is the editable draft. Salaries hold the raw text the user typed.
type FormValues struct {
	Title       string `json:"title" validate:"notblank"`
	Company     string `json:"company" validate:"notblank"`
	Location    string `json:"location"`
	Description string `json:"description"`
	SalaryFrom  string `json:"salaryFrom" validate:"omitempty,decimal"`
	SalaryTo    string `json:"salaryTo" validate:"omitempty,decimal"`
	Active      bool   `json:"isActive"`
}

func emptyValues() FormValues {
	return FormValues{Active: true}
}

func valuesOf(p *domain.JobPosting) FormValues {
	return FormValues{
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		Description: p.Description,
		SalaryFrom:  domain.FormatSalary(p.SalaryFrom),
		SalaryTo:    domain.FormatSalary(p.SalaryTo),
		Active:      p.Active,
	}
}

// Form is the create/edit view model for a single posting.
type Form struct {
	mu          sync.Mutex
	api         PostingSaver
	validate    *validator.Validate
	bound       *domain.JobPosting
	generation  uint64
	values      FormValues
	fieldErrors map[string]string
	message     string
	busy        bool
	onSuccess   func(ctx context.Context, saved domain.JobPosting, created bool)
	onCancel    func()
	logger      *slog.Logger
}

// NewForm returns a form in create phase.
func NewForm(api PostingSaver, logger *slog.Logger) *Form {
	return &Form{
		api:         api,
		validate:    newFormValidator(),
		values:      emptyValues(),
		fieldErrors: make(map[string]string),
		logger:      logger.With("component", "posting-form"),
	}
}

// OnSuccess sets the callback fired after a successful save.
func (f *Form) OnSuccess(fn func(ctx context.Context, saved domain.JobPosting, created bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSuccess = fn
}

// OnCancel sets the callback fired by Cancel.
func (f *Form) OnCancel(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCancel = fn
}

// Bind switches to edit phase for p, or to create phase when p is nil.
// The draft is replaced and all errors are cleared.
func (f *Form) Bind(p *domain.JobPosting) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	if p == nil {
		f.bound = nil
		f.values = emptyValues()
	} else {
		bound := *p
		f.bound = &bound
		f.values = valuesOf(&bound)
	}
	f.fieldErrors = make(map[string]string)
	f.message = ""
}

func (f *Form) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phaseLocked()
}

func (f *Form) phaseLocked() Phase {
	if f.bound != nil {
		return PhaseEdit
	}
	return PhaseCreate
}

// Bound returns the record being edited, if any.
func (f *Form) Bound() (domain.JobPosting, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bound == nil {
		return domain.JobPosting{}, false
	}
	return *f.bound, true
}

// Set edits one field by name and clears that field's error.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldTitle:
		f.values.Title = value
	case FieldCompany:
		f.values.Company = value
	case FieldLocation:
		f.values.Location = value
	case FieldDescription:
		f.values.Description = value
	case FieldSalaryFrom:
		f.values.SalaryFrom = value
	case FieldSalaryTo:
		f.values.SalaryTo = value
	case FieldActive, "active":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		f.values.Active = b
		field = FieldActive
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(f.fieldErrors, field)
	return nil
}

// Submit validates the draft and saves it through the API.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	f.fieldErrors = make(map[string]string)
	f.message = ""

	if errs := f.validateLocked(); len(errs) > 0 {
		f.fieldErrors = errs
		f.message = summaryInvalid
		f.mu.Unlock()
		return ErrValidation
	}

	draft, err := f.draftLocked()
	if err != nil {
		f.mu.Unlock()
		return err
	}

	var id string
	if f.bound != nil {
		id = f.bound.ID
	}
	generation := f.generation
	f.busy = true
	f.mu.Unlock()

	var saved *domain.JobPosting
	if id == "" {
		saved, err = f.api.Create(ctx, draft)
	} else {
		saved, err = f.api.Update(ctx, id, draft)
	}

	f.mu.Lock()
	f.busy = false
	if err != nil {
		f.applyFailureLocked(err)
		f.mu.Unlock()
		f.logger.Warn("save failed", "id", id, "error", err)
		return err
	}

	f.fieldErrors = make(map[string]string)
	f.message = ""
	if id == "" && f.generation == generation {
		f.values = emptyValues()
	}
	onSuccess := f.onSuccess
	f.mu.Unlock()

	f.logger.Info("posting saved", "id", saved.ID, "created", id == "")
	if onSuccess != nil {
		onSuccess(ctx, *saved, id == "")
	}
	return nil
}

func (f *Form) applyFailureLocked(err error) {
	var fe *domain.FieldErrors
	if errors.As(err, &fe) {
		for _, field := range fe.Fields() {
			msg, _ := fe.Get(field)
			f.fieldErrors[field] = msg
		}
		f.message = fe.First()
		if f.message == "" {
			f.message = summaryRejected
		}
		return
	}
	f.message = domain.MessageOf(err)
	if f.message == "" {
		f.message = summaryFailed
	}
}

func (f *Form) validateLocked() map[string]string {
	errs := make(map[string]string)

	input := f.values
	input.SalaryFrom = strings.TrimSpace(input.SalaryFrom)
	input.SalaryTo = strings.TrimSpace(input.SalaryTo)

	err := f.validate.Struct(input)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[FieldTitle] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		label := formLabels[fe.Field()]
		switch fe.Tag() {
		case "notblank":
			errs[fe.Field()] = label + " is required"
		case "decimal":
			errs[fe.Field()] = label + " must be a number"
		default:
			errs[fe.Field()] = label + " is invalid"
		}
	}
	return errs
}

// draftLocked builds the payload. Title and company are sent as typed;
// empty salaries become null.
func (f *Form) draftLocked() (domain.Draft, error) {
	from, err := parseSalary(f.values.SalaryFrom)
	if err != nil {
		return domain.Draft{}, err
	}
	to, err := parseSalary(f.values.SalaryTo)
	if err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		Title:       f.values.Title,
		Company:     f.values.Company,
		Location:    f.values.Location,
		Description: f.values.Description,
		SalaryFrom:  from,
		SalaryTo:    to,
		Active:      f.values.Active,
	}, nil
}

// Cancel leaves edit phase through the parent's callback.
func (f *Form) Cancel() {
	f.mu.Lock()
	onCancel := f.onCancel
	canCancel := f.bound != nil
	f.mu.Unlock()

	if canCancel && onCancel != nil {
		onCancel()
	}
}

func (f *Form) CanCancel() bool {
	return f.Phase() == PhaseEdit
}

func (f *Form) SubmitLabel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.busy:
		return "Saving..."
	case f.bound != nil:
		return "Update Job"
	default:
		return "Create Job"
	}
}

func (f *Form) Values() FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// FieldErrors returns a copy of the current per-field messages.
func (f *Form) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = v
	}
	return out
}

// Message is the form-level summary, empty when there is nothing to report.
func (f *Form) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

var formLabels = map[string]string{
	FieldTitle:       "Title",
	FieldCompany:     "Company",
	FieldLocation:    "Location",
	FieldDescription: "Description",
	FieldSalaryFrom:  "Salary From",
	FieldSalaryTo:    "Salary To",
	FieldActive:      "Active",
}

func newFormValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := parseDecimal(fl.Field().String())
		return err == nil
	})

	return validate
}

func parseSalary(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := parseDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid salary %q: %w", raw, err)
	}
	return &v, nil
}

// decimalPattern admits plain decimal notation only. ParseFloat alone would
// also take NaN, Inf and hex floats, none of which encode as a JSON number.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

func parseDecimal(raw string) (float64, error) {
	if !decimalPattern.MatchString(raw) {
		return 0, fmt.Errorf("not a decimal number: %q", raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("out of range: %q", raw)
	}
	return v, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "on", "1":
		return true, nil
	case "false", "no", "n", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false, got %q", raw)
}
