package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/templeledger/donations-backend/internal/domain"
)

// validate is safe for concurrent use; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so messages line up with request payload fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// gt/lt comparisons on amounts operate on the float value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("community", func(fl validator.FieldLevel) bool {
		return domain.Community(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("paymentmode", func(fl validator.FieldLevel) bool {
		return domain.PaymentMode(fl.Field().String()).Valid()
	})
	return v
}

// NormalizeInput trims text fields, rounds the amount to paise and moves the
// donation date to UTC. It is applied before validation on every write path.
func NormalizeInput(in domain.DonationInput) domain.DonationInput {
	in.ReceiptNo = strings.TrimSpace(in.ReceiptNo)
	in.Name = strings.TrimSpace(in.Name)
	in.Community = domain.Community(strings.TrimSpace(string(in.Community)))
	in.Location = strings.TrimSpace(in.Location)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PaymentMode = domain.PaymentMode(strings.TrimSpace(string(in.PaymentMode)))
	in.Amount = in.Amount.Round(2)
	if in.DonationDate != nil {
		t := in.DonationDate.UTC()
		in.DonationDate = &t
	}
	return in
}

// ValidateInput checks in against the donation schema and returns a
// *ValidationError listing every offending field, or nil.
func ValidateInput(in domain.DonationInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "receipt_no":
		if fe.Tag() == "required" {
			return "Receipt number is required"
		}
	case "name":
		if fe.Tag() == "required" {
			return "Name is required"
		}
	case "location":
		if fe.Tag() == "required" {
			return "Location is required"
		}
	case "phone":
		if fe.Tag() == "numeric" {
			return "Phone number must contain only digits"
		}
		return "Phone number must be exactly 10 digits"
	case "amount":
		if fe.Tag() == "lte" {
			return "Amount cannot exceed " + fe.Param()
		}
		return "Amount must be greater than 0"
	case "community":
		if fe.Tag() == "required" {
			return "Kulam selection is required"
		}
		return "Please select a valid Kulam"
	case "payment_mode":
		return "Please select a valid payment mode"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s cannot be longer than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is not valid", fe.Field())
}
