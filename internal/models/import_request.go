package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// OpenImportRequest starts a new import session.
type OpenImportRequest struct {
	EntityKind string `json:"entity_kind" validate:"required,oneof=properties users leads developers cities launches governorates areas"`
}

func (r *OpenImportRequest) Normalize() {
	r.EntityKind = strings.ToLower(strings.TrimSpace(r.EntityKind))
}

// Validate normalizes the request and returns a message per invalid field.
func (r *OpenImportRequest) Validate() map[string]string {
	r.Normalize()
	return validationMessages(validate.Struct(r))
}

// HistoryFilter narrows the import history listing.
type HistoryFilter struct {
	EntityKind string `validate:"omitempty,oneof=properties users leads developers cities launches governorates areas"`
	Status     string `validate:"omitempty,oneof=previewing uploading completed failed cancelled"`
}

func (f *HistoryFilter) Validate() map[string]string {
	return validationMessages(validate.Struct(f))
}

func validationMessages(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "oneof":
			out[fe.Field()] = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			out[fe.Field()] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return out
}
