package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"glec/pkg/logger"
	"glec/pkg/model"

	"github.com/go-playground/validator/v10"
)

var tokenRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// IsBookingToken reports whether s has the shape of an issued token: 64 lowercase hex characters.
func IsBookingToken(s string) bool {
	return tokenRegex.MatchString(s)
}

type MeetingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewMeetingValidator(log *logger.Logger) *MeetingValidator {
	v := validator.New()

	// Report json names so field errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("booking_token", func(fl validator.FieldLevel) bool {
		return IsBookingToken(fl.Field().String())
	}); err != nil {
		log.Fatal("Failed to register 'booking_token' validator", "error", err)
	}

	return &MeetingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *MeetingValidator) ValidateSlot(slot *model.MeetingSlot) error {
	if err := v.structErrors(slot); err != nil {
		return err
	}

	var errs ValidationErrors
	if slot.MeetingLocation == model.LocationOnline && slot.MeetingURL == "" {
		errs = append(errs, ValidationError{Field: "meeting_url", Message: "meeting_url is required for online meetings"})
	}
	if slot.MeetingLocation == model.LocationOffice && slot.OfficeAddress == "" {
		errs = append(errs, ValidationError{Field: "office_address", Message: "office_address is required for office meetings"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateSlotUpdate checks the patch alone. The merged window is checked
// against the stored slot by the service.
func (v *MeetingValidator) ValidateSlotUpdate(update *model.MeetingSlotUpdate) error {
	if err := v.structErrors(update); err != nil {
		return err
	}

	if update.StartTime != nil && update.EndTime != nil && !update.EndTime.After(*update.StartTime) {
		return ValidationErrors{{Field: "end_time", Message: "end_time must be after start_time"}}
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return ValidationErrors{{Field: "title", Message: "title cannot be empty"}}
	}
	return nil
}

// ValidateWindow checks a merged start/end pair.
func (v *MeetingValidator) ValidateWindow(start, end time.Time) error {
	if !end.After(start) {
		return ValidationErrors{{Field: "end_time", Message: "end_time must be after start_time"}}
	}
	return nil
}

func (v *MeetingValidator) ValidateBookRequest(req *model.BookRequest) error {
	return v.structErrors(req)
}

func (v *MeetingValidator) ValidateProposal(req *model.ProposalRequest) error {
	return v.structErrors(req)
}

func (v *MeetingValidator) ValidateStatusUpdate(req *model.StatusUpdateRequest) error {
	if err := v.structErrors(req); err != nil {
		return err
	}
	if req.CancellationReason != "" && req.Status != model.BookingCancelled {
		return ValidationErrors{{Field: "cancellation_reason", Message: "cancellation_reason is only allowed when cancelling"}}
	}
	return nil
}

func (v *MeetingValidator) ValidateGenerate(req *model.GenerateSlotsRequest) error {
	return v.structErrors(req)
}

func (v *MeetingValidator) ValidateLead(lead *model.Lead) error {
	return v.structErrors(lead)
}

func (v *MeetingValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +821012345678)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA timezone", err.Field())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "ltefield":
			message = fmt.Sprintf("%s cannot exceed %s", err.Field(), err.Param())
		case "booking_token":
			message = fmt.Sprintf("%s is not a valid booking token", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
