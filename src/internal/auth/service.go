// FILE: zkpauth/src/internal/auth/service.go

// Package auth implements the server side of the Chaum-Pedersen login
// protocol: registration, challenge issuance and answer verification.
package auth

// Service is the three-operation authentication API. Transports bind it to a
// wire format without touching protocol logic.
type Service interface {
	Register(req *RegisterRequest) (*RegisterResponse, error)
	CreateChallenge(req *ChallengeRequest) (*ChallengeResponse, error)
	VerifyAnswer(req *AnswerRequest) (*AnswerResponse, error)
}
