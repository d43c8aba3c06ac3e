package validate

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Echo adapts go-playground/validator to echo's Validator interface so
// handlers can call c.Validate on bound request bodies.
type Echo struct {
	v *validator.Validate
}

func NewEcho() *Echo {
	return &Echo{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (e *Echo) Validate(i interface{}) error {
	if err := e.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
