// FILE: zkpauth/src/internal/auth/messages.go
package auth

// Integer fields are big-endian unsigned encodings.

// RegisterRequest binds a username to the commitments (y1, y2).
type RegisterRequest struct {
	User string `json:"user"`
	Y1   []byte `json:"y1"`
	Y2   []byte `json:"y2"`
}

// RegisterResponse is empty on success.
type RegisterResponse struct{}

// ChallengeRequest carries the ephemeral commitments (r1, r2).
type ChallengeRequest struct {
	User string `json:"user"`
	R1   []byte `json:"r1"`
	R2   []byte `json:"r2"`
}

// ChallengeResponse returns the auth id and the challenge c.
type ChallengeResponse struct {
	AuthID string `json:"auth_id"`
	C      []byte `json:"c"`
}

// AnswerRequest submits the response s for an auth id.
type AnswerRequest struct {
	AuthID string `json:"auth_id"`
	S      []byte `json:"s"`
}

// AnswerResponse carries the session id issued on success.
type AnswerResponse struct {
	SessionID string `json:"session_id"`
}
