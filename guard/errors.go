package guard

import (
	"errors"
	"net/http"

	"github.com/upb/permguard/session"
	"github.com/upb/permguard/utils"
)

// ErrNotConfigured is the panic value raised when the store is used before Configure.
var ErrNotConfigured = errors.New("permguard: Configure must be called before authorization checks")

// DenialKind classifies why a request was refused
type DenialKind string

const (
	DenialUnauthenticated        DenialKind = "unauthenticated"
	DenialBanned                 DenialKind = "banned"
	DenialInsufficientPermission DenialKind = "insufficient_permission"
	DenialCustom                 DenialKind = "custom"
)

// Default denial messages, used when Messages leaves a field empty.
const (
	DefaultUnauthorizedMessage            = "Unauthorized"
	DefaultBannedMessage                  = "Account is not active"
	DefaultInsufficientPermissionsMessage = "Insufficient permissions"
)

// Denial is a pre-built refusal carrying the HTTP status and message to send.
type Denial struct {
	Kind    DenialKind
	Status  int
	Message string

	// Cause is the accessor error behind an unauthenticated denial, if any.
	// It is never sent to the client.
	Cause error
}

// Write renders the denial as a JSON error response
func (d *Denial) Write(w http.ResponseWriter) error {
	return utils.WriteError(w, d.Status, d.Message, nil)
}

// NewDenial builds a custom denial
func NewDenial(status int, message string) *Denial {
	return &Denial{Kind: DenialCustom, Status: status, Message: message}
}

// AuthResult is either a validated session or a denial; exactly one is set.
type AuthResult struct {
	Session *session.Session
	Denial  *Denial
}

// Allowed reports whether the result carries a session
func (r AuthResult) Allowed() bool {
	return r.Denial == nil && r.Session != nil
}

func denied(kind DenialKind, status int, message string) AuthResult {
	return AuthResult{Denial: &Denial{Kind: kind, Status: status, Message: message}}
}
