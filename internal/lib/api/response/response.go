package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Code is the public error-code set. Every internal failure maps to one of
// these before it crosses the HTTP boundary; internal detail never does.
type Code string

const (
	CodeInvalidPayment  Code = "INVALID_PAYMENT"
	CodePaymentReplayed Code = "PAYMENT_REPLAYED"
	CodePaymentFailed   Code = "PAYMENT_FAILED"
	CodeOracleDown      Code = "ORACLE_UNAVAILABLE"
	CodeSettlement      Code = "SETTLEMENT_FAILED"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

type Response struct {
	Status int    `json:"status"`
	Code   Code   `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK = 200
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string, code Code, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Code:   code,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is below minimum", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is above maximum", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Status: http.StatusBadRequest,
		Code:   CodeBadRequest,
		Error:  strings.Join(errMsgs, ", "),
	}
}
