package handler

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_sessions/internal/errs"
)

// Error codes for failures that carry no business kind.
const (
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"
	CodeHTTP         = "http_error"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func fail(c fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
}

func badRequest(c fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, string(errs.KindValidation), msg)
}

func unauthorized(c fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}

func forbidden(c fiber.Ctx) error {
	return fail(c, fiber.StatusForbidden, string(errs.KindForbidden), "forbidden")
}

// StatusOf maps a business kind to its HTTP status.
func StatusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return fiber.StatusNotFound
	case errs.KindInvalidRange, errs.KindPastDate, errs.KindValidation:
		return fiber.StatusBadRequest
	case errs.KindSlotUnavailable, errs.KindInvalidTransition, errs.KindAlreadyRated, errs.KindDuplicateBooking:
		return fiber.StatusConflict
	case errs.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders a service error. Faults are logged and hidden.
func writeError(c fiber.Ctx, err error) error {
	kind := errs.KindOf(err)
	if kind == "" {
		slog.ErrorContext(c.Context(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return fail(c, fiber.StatusInternalServerError, CodeInternal, "internal server error")
	}
	return fail(c, StatusOf(kind), string(kind), errs.Message(err))
}

// bindError renders a request decoding or validation failure.
func bindError(c fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return badRequest(c, fe.Field()+" failed the "+fe.Tag()+" rule")
	}
	return badRequest(c, "invalid request body")
}

// ErrorHandler renders errors returned by handlers and middleware in the
// {"error", "code"} shape.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeHTTP
		switch fe.Code {
		case fiber.StatusUnauthorized:
			code = CodeUnauthorized
		case fiber.StatusForbidden:
			code = string(errs.KindForbidden)
		case fiber.StatusNotFound:
			code = string(errs.KindNotFound)
		case fiber.StatusTooManyRequests:
			code = CodeRateLimited
		case fiber.StatusBadRequest:
			code = string(errs.KindValidation)
		}
		return fail(c, fe.Code, code, fe.Message)
	}
	return writeError(c, err)
}
