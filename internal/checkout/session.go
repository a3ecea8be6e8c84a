// Package checkout drives the two-step checkout of the shop client: shipping
// details first, then payment through the hosted gateway.
package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/exousia/storefront/internal/identity"
)

// Step is the active checkout step
type Step string

const (
	StepShipping Step = "SHIPPING"
	StepPayment  Step = "PAYMENT"
)

// DefaultCountry pre-fills the country field
const DefaultCountry = "United States"

// ShippingDetails is collected in the SHIPPING step. Every field is required.
type ShippingDetails struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
}

func (d ShippingDetails) trimmed() ShippingDetails {
	return ShippingDetails{
		Email:      strings.TrimSpace(d.Email),
		FirstName:  strings.TrimSpace(d.FirstName),
		LastName:   strings.TrimSpace(d.LastName),
		Address:    strings.TrimSpace(d.Address),
		City:       strings.TrimSpace(d.City),
		State:      strings.TrimSpace(d.State),
		PostalCode: strings.TrimSpace(d.PostalCode),
		Country:    strings.TrimSpace(d.Country),
		Phone:      strings.TrimSpace(d.Phone),
	}
}

// ValidationError lists the shipping fields that are missing or malformed,
// by their JSON names, in declaration order.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "checkout: missing or invalid shipping details: " + strings.Join(e.Fields, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Session is one in-memory checkout attempt. It is never persisted: a new
// session starts in SHIPPING.
type Session struct {
	step      Step
	details   ShippingDetails
	reference string
}

// NewSession starts at SHIPPING, pre-filled from the signed-in user if any.
func NewSession(user *identity.User) *Session {
	details := ShippingDetails{Country: DefaultCountry}
	if user != nil {
		details.Email = user.Email
		details.FirstName = user.FirstName
		details.LastName = user.LastName
	}
	return &Session{step: StepShipping, details: details}
}

func (s *Session) Step() Step {
	return s.step
}

func (s *Session) Details() ShippingDetails {
	return s.details
}

// Reference is the payment reference of the last successful initialization.
func (s *Session) Reference() string {
	return s.reference
}

// SubmitShipping validates details and advances to PAYMENT. On a validation
// failure the session stays in SHIPPING and keeps the submitted values.
func (s *Session) SubmitShipping(details ShippingDetails) error {
	details = details.trimmed()
	s.details = details

	if err := validate.Struct(details); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		verr := &ValidationError{Fields: make([]string, 0, len(fieldErrs))}
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, fe.Field())
		}
		return verr
	}

	s.step = StepPayment
	return nil
}

// BackToShipping returns from PAYMENT to SHIPPING. Entered details are kept.
func (s *Session) BackToShipping() {
	s.step = StepShipping
}

func (s *Session) reset() {
	s.step = StepShipping
	s.reference = ""
}
