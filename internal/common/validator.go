package common

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

var (
	sharedValidator     *validator.Validate
	sharedValidatorOnce sync.Once
)

// ValidateStruct checks i against its `validate` struct tags.
func ValidateStruct(i interface{}) error {
	sharedValidatorOnce.Do(func() {
		sharedValidator = validator.New()
	})
	return sharedValidator.Struct(i)
}

type GenericEchoValidator struct {
	Validator *validator.Validate
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	var err error
	if gv.Validator != nil {
		err = gv.Validator.Struct(i)
	} else {
		err = ValidateStruct(i)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %v", err))
	}
	return nil
}
