package errprocess

import (
	"errors"
	"fmt"

	"joa_realtime/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log and wrap err with a message
func Wrap(msg string, err error) error {
	logger.Log.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

// APIError is an application level rejection returned by the JoA REST API
// or carried in a websocket close reason.
type APIError struct {
	Code    string
	Title   string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Title, e.Message)
}

// Is two APIError match when their codes match
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeUnknown is used for codes missing from the table
const CodeUnknown = "UNKNOWN"

var (
	// ErrMemberNotFound M001
	ErrMemberNotFound = &APIError{Code: "M001", Title: "member not found", Message: "the member does not exist, please sign up or log in"}
	// ErrMemberSuspended M004
	ErrMemberSuspended = &APIError{Code: "M004", Title: "account suspended", Message: "the account is temporarily suspended"}
	// ErrMemberBanned M014
	ErrMemberBanned = &APIError{Code: "M014", Title: "account banned", Message: "the account is permanently banned"}
	// ErrRoomNotFound R003
	ErrRoomNotFound = &APIError{Code: "R003", Title: "room not found", Message: "there is no information for this chat room"}
	// ErrRoomMemberNotFound RIM001
	ErrRoomMemberNotFound = &APIError{Code: "RIM001", Title: "room membership not found", Message: "no chat room is linked to this member"}
	// ErrRoomVoteExists RIM003
	ErrRoomVoteExists = &APIError{Code: "RIM003", Title: "vote failed", Message: "an extension vote already exists for this room"}
	// ErrNoMessages MG001
	ErrNoMessages = &APIError{Code: "MG001", Title: "no messages", Message: "there are no messages"}
	// ErrLocationUnknown L001
	ErrLocationUnknown = &APIError{Code: "L001", Title: "location unavailable", Message: "the current location cannot be confirmed, allow location access and retry"}
)

var codeTable = map[string]*APIError{
	"M001":   ErrMemberNotFound,
	"M003":   {Code: "M003", Title: "member not found", Message: "the member does not exist, please sign up or log in"},
	"M004":   ErrMemberSuspended,
	"M014":   ErrMemberBanned,
	"R001":   {Code: "R001", Title: "room creation failed", Message: "the chat room could not be created"},
	"R003":   ErrRoomNotFound,
	"RIM001": ErrRoomMemberNotFound,
	"RIM003": ErrRoomVoteExists,
	"MG001":  ErrNoMessages,
	"MG003":  {Code: "MG003", Title: "decryption failed", Message: "the message could not be decrypted"},
	"MR001":  {Code: "MR001", Title: "already reported", Message: "this message has already been reported"},
	"L001":   ErrLocationUnknown,
	"P001":   {Code: "P001", Title: "school not found", Message: "the school information could not be found"},
	"V001":   {Code: "V001", Title: "vote failed", Message: "the vote could not be saved"},
	"V002":   {Code: "V002", Title: "vote failed", Message: "select a vote category and retry"},
	"V003":   {Code: "V003", Title: "already voted", Message: "the vote has already been cast"},
	"V004":   {Code: "V004", Title: "vote failed", Message: "a heart cannot be sent to this member"},
	"B001":   {Code: "B001", Title: "vote failed", Message: "a heart cannot be sent to this member right now"},
}

// Lookup map a server code to an APIError, unmapped codes get the generic one
func Lookup(code string) *APIError {
	if e, ok := codeTable[code]; ok {
		return e
	}
	return &APIError{
		Code:    CodeUnknown,
		Title:   "unknown error",
		Message: fmt.Sprintf("unexpected code %q, contact the administrator if it persists", code),
	}
}

// IsKnown report whether code is in the table
func IsKnown(code string) bool {
	_, ok := codeTable[code]
	return ok
}
