package checks

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// MessageOK is the message of every passing result.
const MessageOK = "OK"

type Result struct {
	Check string `json:"check"`
	// Column is the field the check inspected; empty for table-level checks.
	Column  string `json:"column,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r Result) Status() Status {
	if r.Success {
		return StatusPass
	}
	return StatusFail
}

func NewResult(check, column string, success bool, message string) Result {
	if success && message == "" {
		message = MessageOK
	}
	return Result{
		Check:   check,
		Column:  column,
		Success: success,
		Message: message,
	}
}

func PassResult(check, column string) Result {
	return NewResult(check, column, true, MessageOK)
}

func FailResult(check, column, message string) Result {
	return NewResult(check, column, false, message)
}
