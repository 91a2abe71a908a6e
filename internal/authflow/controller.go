// Package authflow owns which authentication step is active and the
// hand-off between login, signup and OTP verification.
package authflow

import (
	"errors"
	"sync"

	"github.com/glowcart-dev/glowcart/internal/session"
)

// Stage identifies the single active authentication step.
type Stage int

const (
	StageNone Stage = iota
	StageLogin
	StageSignup
	StageOTP
)

func (s Stage) String() string {
	switch s {
	case StageLogin:
		return "login"
	case StageSignup:
		return "signup"
	case StageOTP:
		return "otp"
	}
	return "none"
}

// OTP intents carried through verification.
const (
	IntentRegister      = "register"
	IntentResetPassword = "reset_password"
)

// ErrInFlight is returned when a submission starts while another one is
// still outstanding.
var ErrInFlight = errors.New("a submission is already in flight")

// Controller is the single writer of the session store and the only owner
// of the active-stage state. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	stage         Stage
	verifiedEmail string // carried from OTP into signup
	onSuccess     func() // at-most-once, discarded on CloseAll
	inFlight      bool

	sessions session.Writer
}

// New creates a controller holding the write capability for the store.
func New(sessions session.Writer) *Controller {
	return &Controller{sessions: sessions}
}

// Stage returns the currently active stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// VerifiedEmail returns the email carried forward from OTP verification,
// empty when signup was opened directly.
func (c *Controller) VerifiedEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifiedEmail
}

// OpenLogin activates the login step, replacing whichever step was active,
// and registers an optional callback to run once authentication completes.
func (c *Controller) OpenLogin(onSuccess func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageLogin
	c.verifiedEmail = ""
	c.onSuccess = onSuccess
}

// OpenSignup activates the signup step with no verified-email prefill.
func (c *Controller) OpenSignup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageSignup
	c.verifiedEmail = ""
}

// OpenOTP activates the OTP verification step.
func (c *Controller) OpenOTP() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageOTP
}

// OTPVerified records a successful OTP check. With intent register the flow
// moves to signup carrying the verified email so the form can skip
// re-verification. Other intents leave the flow where it is; their
// continuation lives with the caller.
func (c *Controller) OTPVerified(intent, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if intent == IntentRegister {
		c.stage = StageSignup
		c.verifiedEmail = email
	}
}

// BeginSubmit marks a network attempt as outstanding. A second call before
// EndSubmit fails with ErrInFlight so double submissions never produce two
// requests.
func (c *Controller) BeginSubmit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrInFlight
	}
	c.inFlight = true
	return nil
}

// EndSubmit clears the outstanding-attempt mark. A failed attempt does not
// change stage; the active form stays open for retry.
func (c *Controller) EndSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
}

// CompleteLogin finishes the flow: persists the session, returns to
// StageNone and runs the registered success callback exactly once.
func (c *Controller) CompleteLogin(sess session.Session) error {
	c.mu.Lock()
	if err := c.sessions.Save(sess); err != nil {
		c.mu.Unlock()
		return err
	}
	c.stage = StageNone
	c.verifiedEmail = ""
	c.inFlight = false
	callback := c.onSuccess
	c.onSuccess = nil
	c.mu.Unlock()

	// Run outside the lock; callbacks may call back into the controller.
	if callback != nil {
		callback()
	}
	return nil
}

// CloseAll dismisses whichever step is active. The pending success callback
// is discarded without being invoked: closing without completing is
// cancellation, not success. The session store is untouched.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageNone
	c.verifiedEmail = ""
	c.onSuccess = nil
}

// Logout clears the persisted session, the inverse of CompleteLogin.
func (c *Controller) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.Clear()
}
