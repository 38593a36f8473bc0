// Package uds carries console requests and log events as NDJSON over a Unix
// domain socket.
package uds

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/modoterra/devconsole/pkg/core"
)

var seq atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
	MsgTypeEvt MsgType = "evt"
)

// Message is the envelope for every line on the wire.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalData decodes the payload into v.
func (m Message) UnmarshalData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: empty payload", m.Method)
	}
	return json.Unmarshal(m.Data, v)
}

func newMessage(t MsgType, id, method string, data any) (Message, error) {
	msg := Message{Type: t, ID: id, Method: method}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s: %w", method, err)
		}
		msg.Data = b
	}
	return msg, nil
}

// NewRequest creates a request message with a unique ID.
func NewRequest(method string, data any) (Message, error) {
	return newMessage(MsgTypeReq, fmt.Sprintf("req-%d", seq.Add(1)), method, data)
}

// NewResponse creates the response to request reqID.
func NewResponse(reqID, method string, data any) (Message, error) {
	return newMessage(MsgTypeRes, reqID, method, data)
}

// NewErrorResponse creates a failed response to request reqID.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Error: errMsg}
}

// NewEvent creates a server-pushed event.
func NewEvent(method string, data any) (Message, error) {
	return newMessage(MsgTypeEvt, fmt.Sprintf("evt-%d", seq.Add(1)), method, data)
}

// Methods and events.
const (
	MethodPing     = "Ping"
	MethodExecute  = "Execute"
	MethodListLogs = "ListLogs"

	EventLogEntry = "logs.entry"
)

// PingResponse identifies the console session answering on the socket.
type PingResponse struct {
	Pong      bool   `json:"pong"`
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// ExecuteRequest submits one line of console input.
type ExecuteRequest struct {
	Text string `json:"text"`
}

// ExecuteResponse reports the dispatcher outcome. Error is empty on success;
// the same failure is also visible in the log stream.
type ExecuteResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ListLogsRequest asks for entries after AfterID (0 for all).
type ListLogsRequest struct {
	AfterID int `json:"after_id"`
}

// ListLogsResponse carries a slice of log entries in append order.
type ListLogsResponse struct {
	Entries []core.LogEntry `json:"entries"`
}
