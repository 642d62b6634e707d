package http

import (
	"fmt"
	"reflect"
	"strings"

	"job-listings/internal/domain"

	"github.com/go-playground/validator/v10"
)

// SavePostingRequest is the Data Transfer Object for creating/updating a posting.
type SavePostingRequest struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	Company     string   `json:"company" validate:"notblank,max=200"`
	Location    string   `json:"location" validate:"max=200"`
	Description string   `json:"description" validate:"max=10000"`
	SalaryFrom  *float64 `json:"salaryFrom" validate:"omitempty,gte=0"`
	SalaryTo    *float64 `json:"salaryTo" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"isActive"`
	Active      *bool    `json:"active"`
}

// ToDraft converts the DTO to a domain.Draft. A missing active flag means true.
func (r *SavePostingRequest) ToDraft() domain.Draft {
	active := true
	switch {
	case r.IsActive != nil:
		active = *r.IsActive
	case r.Active != nil:
		active = *r.Active
	}
	return domain.Draft{
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		Description: r.Description,
		SalaryFrom:  r.SalaryFrom,
		SalaryTo:    r.SalaryTo,
		Active:      active,
	}
}

var fieldLabels = map[string]string{
	"title":       "Title",
	"company":     "Company",
	"location":    "Location",
	"description": "Description",
	"salaryFrom":  "Salary From",
	"salaryTo":    "Salary To",
}

// newValidator builds a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return validate
}

// validateRequest runs the tag rules and the cross-field salary rule and
// returns the failures as a field to message map, or nil.
func validateRequest(validate *validator.Validate, status int, req *SavePostingRequest) *domain.FieldErrors {
	fe := domain.NewFieldErrors(status)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); !ok {
			fe.Add("request", err.Error())
			return fe
		}
		for _, v := range verrs {
			fe.Add(v.Field(), validationMessage(v))
		}
	}

	if req.SalaryFrom != nil && req.SalaryTo != nil && *req.SalaryTo < *req.SalaryFrom {
		if _, taken := fe.Get("salaryTo"); !taken {
			fe.Add("salaryTo", "Salary To must not be less than Salary From")
		}
	}

	if fe.Len() == 0 {
		return nil
	}
	return fe
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*out = verrs
	}
	return ok
}

func validationMessage(v validator.FieldError) string {
	label, ok := fieldLabels[v.Field()]
	if !ok {
		label = v.Field()
	}
	switch v.Tag() {
	case "notblank", "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, v.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, v.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
