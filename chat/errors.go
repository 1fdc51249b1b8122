package chat

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	CodeNotFound           ErrorCode = "not_found"
	CodeForbidden          ErrorCode = "forbidden"
	CodeInvalidParticipant ErrorCode = "invalid_participant"
	CodeValidation         ErrorCode = "validation_error"
)

// Error is the taxonomy surfaced by the thread store. Handlers map Status to
// the HTTP response; Details carries enough context for the caller to act
// (e.g. which participant id was rejected).
type Error struct {
	Status  int
	Code    ErrorCode
	Message string
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFound(message string) *Error {
	return &Error{Status: 404, Code: CodeNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: 403, Code: CodeForbidden, Message: message}
}

func InvalidParticipant(participantID uuid.UUID) *Error {
	return &Error{
		Status:  422,
		Code:    CodeInvalidParticipant,
		Message: fmt.Sprintf("participant %s is not a member of the opportunity roster", participantID),
		Details: map[string]string{"participant_id": participantID.String()},
	}
}

func Validation(message string) *Error {
	return &Error{Status: 400, Code: CodeValidation, Message: message}
}
