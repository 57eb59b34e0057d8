package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/order"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupValidatorOnce sync.Once

// SetupValidator configures gin's validator with JSON field names and the
// custom tags used by the request DTOs:
//
//	ticket_estado  pendiente, en-preparacion, en-camino, entregado, cancelado
//	prioridad      normal, alta
//	staff_role     admin, flota
//	metodo_pago    efectivo, tarjeta, transferencia, mercadopago
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("ticket_estado", func(fl validator.FieldLevel) bool {
			return ticket.Estado(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("prioridad", func(fl validator.FieldLevel) bool {
			return ticket.Prioridad(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("staff_role", func(fl validator.FieldLevel) bool {
			return identity.Role(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("metodo_pago", func(fl validator.FieldLevel) bool {
			return order.IsMetodoPago(fl.Field().String())
		})
	})
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}
	if len(details) == 0 {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed request body", requestID)
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 for a failed bind
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "ticket_estado":
		return "Must be one of: pendiente en-preparacion en-camino entregado cancelado"
	case "prioridad":
		return "Must be one of: normal alta"
	case "staff_role":
		return "Must be one of: admin flota"
	case "metodo_pago":
		return "Unknown payment method"
	default:
		return "Invalid value"
	}
}
