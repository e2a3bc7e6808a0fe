package accountsdk

import (
	"context"
	"errors"
	"sync"
)

type RecoveryStep int

const (
	StepStart RecoveryStep = iota
	StepAwaitingSecurityAnswer
	StepAwaitingNewPassword
	StepDone
)

func (s RecoveryStep) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepAwaitingSecurityAnswer:
		return "awaiting_security_answer"
	case StepAwaitingNewPassword:
		return "awaiting_new_password"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// RecoveryFlow drives the forgot-password exchange. Each Submit call only
// advances the step when the server accepts it.
type RecoveryFlow struct {
	client *Client

	mu            sync.Mutex
	step          RecoveryStep
	email         string
	recoveryToken string
	lastMessage   string
}

func NewRecoveryFlow(client *Client) *RecoveryFlow {
	return &RecoveryFlow{client: client}
}

func (f *RecoveryFlow) Step() RecoveryStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *RecoveryFlow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// LastMessage is the server message of the most recent failed step, or ""
// after a success.
func (f *RecoveryFlow) LastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMessage
}

// SubmitEmail checks that an account exists for email.
func (f *RecoveryFlow) SubmitEmail(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepStart {
		return ErrWrongStep
	}
	if err := f.client.CheckEmail(ctx, email); err != nil {
		return f.fail(err)
	}

	f.email = email
	f.step = StepAwaitingSecurityAnswer
	f.lastMessage = ""
	return nil
}

// SubmitAnswer verifies the security question and answer for the email
// accepted by SubmitEmail.
func (f *RecoveryFlow) SubmitAnswer(ctx context.Context, question, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAwaitingSecurityAnswer {
		return ErrWrongStep
	}
	token, err := f.client.CheckSecurityAnswer(ctx, f.email, question, answer)
	if err != nil {
		return f.fail(err)
	}

	f.recoveryToken = token
	f.step = StepAwaitingNewPassword
	f.lastMessage = ""
	return nil
}

// SubmitNewPassword resets the password using the recovery token from
// SubmitAnswer.
func (f *RecoveryFlow) SubmitNewPassword(ctx context.Context, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAwaitingNewPassword {
		return ErrWrongStep
	}
	if err := f.client.ResetPassword(ctx, f.email, newPassword, f.recoveryToken); err != nil {
		return f.fail(err)
	}

	f.recoveryToken = ""
	f.step = StepDone
	f.lastMessage = ""
	return nil
}

func (f *RecoveryFlow) fail(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		f.lastMessage = apiErr.Message
	} else {
		f.lastMessage = err.Error()
	}
	return err
}
