// Package ipc carries activation commands from a second launch to the
// running instance over a per-user named pipe or unix socket.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Commands understood by the running instance.
const (
	CommandActivate = "activate"
	CommandToggle   = "toggle"
	CommandShow     = "show"
	CommandHide     = "hide"
)

// Request is one command sent by a client.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response answers one Request.
type Response struct {
	ExitCode int    `json:"exit_code"`
	Message  string `json:"message,omitempty"`
}

// OK builds a successful response.
func OK(message string) Response {
	return Response{Message: message}
}

// Fail builds an error response.
func Fail(format string, args ...any) Response {
	return Response{ExitCode: 1, Message: fmt.Sprintf(format, args...)}
}

// Handler executes a request.
type Handler interface {
	Handle(req Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req Request) Response

func (f HandlerFunc) Handle(req Request) Response { return f(req) }

// ParseCommand maps a CLI argument to a command. Empty input is activate.
func ParseCommand(arg string) (string, error) {
	cmd := strings.ToLower(strings.TrimLeft(strings.TrimSpace(arg), "-"))
	switch cmd {
	case "", CommandActivate:
		return CommandActivate, nil
	case CommandToggle, CommandShow, CommandHide:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown command %q", arg)
	}
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Request{}, errors.New("command is required")
	}
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
