package contactbook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Register creates a user account with the default role and a freshly hashed
// password. The returned User is redacted. A taken email fails with
// [ErrDuplicateIdentity]; the welcome notification is best-effort.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := e.ready(); err != nil {
		return User{}, err
	}

	if _, err := e.users.FindByEmail(ctx, in.Email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		return User{}, ErrDuplicateIdentity
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         e.config.Account.DefaultRole,
	}

	if err := e.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			// Lost the race with a concurrent registration.
			e.metricInc(MetricRegisterDuplicate)
			return User{}, ErrDuplicateIdentity
		}
		return User{}, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.log.Info("user registered", zap.String("user_id", user.ID))
	e.notify(ctx, user.Email, "Welcome", "Your account has been created.")
	e.publish(ctx, "user.registered:"+user.Email)

	return user.Redacted(), nil
}

// Login authenticates email/password and returns a session token whose
// subject is the user id. A missing account is [ErrNotFound]; a wrong
// password is [ErrBadCredential]. Nothing further about which part failed is
// revealed.
func (e *Engine) Login(ctx context.Context, email, rawPassword string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricLoginFailure)
		}
		return "", err
	}

	ok, err := e.hasher.Verify(rawPassword, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		return "", ErrBadCredential
	}

	sessionToken, err := e.tokens.IssueSession(user.ID, string(user.Role))
	if err != nil {
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.notify(ctx, user.Email, "New login", "Your account was just signed in to.")
	e.publish(ctx, "user.login:"+user.Email)

	return sessionToken, nil
}

// RequestPasswordReset issues a reset token for the account, records it as
// the single outstanding reset token, and hands it to the notifier. The token
// reaches the user only through that delivery channel.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	resetToken, err := e.tokens.IssueReset(user.Email, string(user.Role))
	if err != nil {
		return err
	}

	// Issuing a new token supersedes any outstanding one.
	user.ResetToken = resetToken
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	e.metricInc(MetricResetRequest)
	e.log.Info("password reset requested", zap.String("user_id", user.ID))
	e.notify(ctx, user.Email, "Password reset", resetToken)

	return nil
}

// ResetPassword consumes a reset token and installs a new password. The token
// must verify and must equal the account's stored outstanding token, which is
// cleared on success so a replay fails with [ErrInvalidToken].
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.verify(resetToken)
	if err != nil {
		e.metricInc(MetricResetConfirmFailure)
		return err
	}

	// Reset token subject is the account email.
	user, err := e.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricResetConfirmFailure)
			return ErrInvalidToken
		}
		return err
	}

	if user.ResetToken == "" || user.ResetToken != resetToken {
		e.metricInc(MetricResetConfirmFailure)
		return ErrInvalidToken
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricResetConfirmFailure)
		return err
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	e.metricInc(MetricResetConfirmSuccess)
	e.log.Info("password reset", zap.String("user_id", user.ID))
	e.notify(ctx, user.Email, "Password reset complete", "Your password has been reset.")
	e.publish(ctx, "user.password_reset:"+user.Email)

	return nil
}

// ChangePassword replaces the password of the session token's user. Any
// outstanding reset token is cleared along the way so it cannot roll the
// password back afterwards.
func (e *Engine) ChangePassword(ctx context.Context, sessionToken, newPassword string) error {
	user, _, err := e.authorize(ctx, sessionToken)
	if err != nil {
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChange)
	e.log.Info("password changed", zap.String("user_id", user.ID))
	e.notify(ctx, user.Email, "Password changed", "Your password has been changed.")

	return nil
}
