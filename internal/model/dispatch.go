package model

import (
	"encoding/json"
	"strconv"
)

// DispatchStatus is the state of a single send attempt.
type DispatchStatus string

const (
	DispatchPending  DispatchStatus = "pending"
	DispatchRetrying DispatchStatus = "retrying"
	DispatchSent     DispatchStatus = "sent"
	DispatchFailed   DispatchStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s DispatchStatus) Terminal() bool {
	return s == DispatchSent || s == DispatchFailed
}

const (
	// ErrorCodeUnexpected marks failures the transport did not classify.
	ErrorCodeUnexpected = "UNEXPECTED"
	// ErrorCodeCanceled marks sends abandoned because the run was cancelled.
	ErrorCodeCanceled = "CANCELED"
)

// SendError describes why a send attempt failed. Code holds the Twilio
// error code, or ErrorCodeUnexpected/ErrorCodeCanceled.
type SendError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Attempt int    `json:"attempt"`
}

type sendErrorJSON struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Attempt int             `json:"attempt"`
}

// MarshalJSON writes numeric provider codes as JSON numbers and the
// sentinel codes as strings.
func (e SendError) MarshalJSON() ([]byte, error) {
	var code []byte
	if n, err := strconv.Atoi(e.Code); err == nil && strconv.Itoa(n) == e.Code {
		code = []byte(e.Code)
	} else {
		code, _ = json.Marshal(e.Code)
	}
	return json.Marshal(sendErrorJSON{Code: code, Message: e.Message, Attempt: e.Attempt})
}

// UnmarshalJSON accepts the code as a number or a string.
func (e *SendError) UnmarshalJSON(data []byte) error {
	var raw sendErrorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Message = raw.Message
	e.Attempt = raw.Attempt
	e.Code = ""
	if len(raw.Code) == 0 || string(raw.Code) == "null" {
		return nil
	}
	if raw.Code[0] == '"' {
		return json.Unmarshal(raw.Code, &e.Code)
	}
	var n json.Number
	if err := json.Unmarshal(raw.Code, &n); err != nil {
		return err
	}
	e.Code = n.String()
	return nil
}

// DispatchResult is the outcome of sending one templated message.
// MessageSID is set iff Status is sent; Error is set iff Status is failed.
type DispatchResult struct {
	To          string         `json:"to"`
	FirstName   string         `json:"first_name"`
	TemplateSID string         `json:"template_sid"`
	Status      DispatchStatus `json:"status"`
	MessageSID  string         `json:"message_sid,omitempty"`
	Error       *SendError     `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
}

// BatchSummary aggregates the outcome of one batch send.
// Sent, Failed and Errors are the sender's running totals, so they span every
// batch sent by the same engine. SuccessRate covers this batch only.
type BatchSummary struct {
	TotalAttempted    int              `json:"total_attempted"`
	Sent              int              `json:"sent"`
	Failed            int              `json:"failed"`
	SuccessRate       float64          `json:"success_rate"`
	ElapsedSeconds    float64          `json:"elapsed_time_seconds"`
	MessagesPerSecond float64          `json:"messages_per_second"`
	Errors            []SendError      `json:"errors"`
	Results           []DispatchResult `json:"detailed_results"`
}
