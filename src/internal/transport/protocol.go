// FILE: zkpauth/src/internal/transport/protocol.go

// Package transport binds auth.Service to two wire formats: a line-oriented
// TCP protocol served by gnet and a JSON-over-HTTP API served by fasthttp.
//
// TCP framing is one request per line:
//
//	REGISTER {"user":"alice","y1":"...","y2":"..."}
//	CHALLENGE {"user":"alice","r1":"...","r2":"..."}
//	ANSWER {"auth_id":"...","s":"..."}
//
// and one reply per line, either "OK <json>" or "FAIL {"code":...,"message":...}".
// Integers travel as big-endian bytes, base64 encoded by encoding/json.
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"zkpauth/src/internal/auth"

	"github.com/valyala/fasthttp"
)

// Commands
const (
	CmdRegister  = "REGISTER"
	CmdChallenge = "CHALLENGE"
	CmdAnswer    = "ANSWER"
)

// Reply prefixes
const (
	ReplyOK   = "OK"
	ReplyFail = "FAIL"
)

// WireError is the JSON body of a failed request.
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToWire converts err into its wire form. Untyped errors become internal.
func ToWire(err error) WireError {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return WireError{Code: authErr.Code.String(), Message: authErr.Message}
	}
	return WireError{Code: auth.CodeInternal.String(), Message: err.Error()}
}

// Err rebuilds the typed error carried by w.
func (w WireError) Err() *auth.Error {
	return &auth.Error{Code: auth.ParseCode(w.Code), Message: w.Message}
}

// FormatRequest renders one request line.
func FormatRequest(cmd string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", cmd, err)
	}
	line := make([]byte, 0, len(cmd)+len(body)+2)
	line = append(line, cmd...)
	line = append(line, ' ')
	line = append(line, body...)
	line = append(line, '\n')
	return line, nil
}

// ParseLine splits a request or reply line into its verb and JSON body.
func ParseLine(line []byte) (string, []byte, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return "", nil, fmt.Errorf("empty line")
	}
	verb, body, _ := bytes.Cut(line, []byte{' '})
	return strings.ToUpper(string(verb)), bytes.TrimSpace(body), nil
}

// FormatReply renders the reply line for a handled request.
func FormatReply(resp any, err error) []byte {
	verb := ReplyOK
	var payload any = resp
	if err != nil {
		verb = ReplyFail
		payload = ToWire(err)
	}

	body, mErr := json.Marshal(payload)
	if mErr != nil {
		verb = ReplyFail
		body, _ = json.Marshal(WireError{Code: auth.CodeInternal.String(), Message: "failed to encode reply"})
	}

	line := make([]byte, 0, len(verb)+len(body)+2)
	line = append(line, verb...)
	line = append(line, ' ')
	line = append(line, body...)
	line = append(line, '\n')
	return line
}

// ParseReply decodes a reply line into out, or returns the typed failure.
func ParseReply(line []byte, out any) error {
	verb, body, err := ParseLine(line)
	if err != nil {
		return fmt.Errorf("malformed reply: %w", err)
	}

	switch verb {
	case ReplyOK:
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed reply body: %w", err)
		}
		return nil
	case ReplyFail:
		var w WireError
		if err := json.Unmarshal(body, &w); err != nil {
			return fmt.Errorf("malformed failure reply: %w", err)
		}
		return w.Err()
	default:
		return fmt.Errorf("unexpected reply verb: %s", verb)
	}
}

// HTTPStatus maps a code to the status used by the HTTP API.
func HTTPStatus(code auth.Code) int {
	switch code {
	case auth.CodeOK:
		return fasthttp.StatusOK
	case auth.CodeInvalidArgument:
		return fasthttp.StatusBadRequest
	case auth.CodeNotFound:
		return fasthttp.StatusNotFound
	case auth.CodePermissionDenied:
		return fasthttp.StatusForbidden
	case auth.CodeUnavailable:
		return fasthttp.StatusTooManyRequests
	default:
		return fasthttp.StatusInternalServerError
	}
}

// CodeFromHTTPStatus is the inverse of HTTPStatus for bodies without a wire error.
func CodeFromHTTPStatus(status int) auth.Code {
	switch status {
	case fasthttp.StatusOK:
		return auth.CodeOK
	case fasthttp.StatusBadRequest:
		return auth.CodeInvalidArgument
	case fasthttp.StatusNotFound:
		return auth.CodeNotFound
	case fasthttp.StatusForbidden:
		return auth.CodePermissionDenied
	case fasthttp.StatusTooManyRequests:
		return auth.CodeUnavailable
	default:
		return auth.CodeInternal
	}
}
