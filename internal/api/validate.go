package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"stoprouter/internal/errs"
	"stoprouter/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type stopRowRequest struct {
	Address       string   `json:"address" validate:"max=512"`
	District      string   `json:"district" validate:"max=128"`
	Lat           *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng           *float64 `json:"lng" validate:"omitempty,longitude"`
	SequenceLabel string   `json:"sequenceLabel" validate:"max=64"`
}

type optimizeRequest struct {
	Stops []stopRowRequest `json:"stops" validate:"required,min=1,max=2000,dive"`
}

func (r optimizeRequest) rows() []model.StopRow {
	out := make([]model.StopRow, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = model.StopRow{
			Address:       s.Address,
			District:      s.District,
			Lat:           s.Lat,
			Lng:           s.Lng,
			SequenceLabel: s.SequenceLabel,
		}
	}
	return out
}

type labelRequest struct {
	Label string `json:"label" validate:"max=64"`
}

// validateRequest runs struct validation and reports the first failing
// field as an errs.ValueIsInvalidError.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Tag() == "required" {
			return errs.NewValueIsRequiredError(field)
		}
		return errs.NewValueIsInvalidErrorWithCause(field, fmt.Errorf("failed %q", fe.Tag()))
	}
	return err
}
