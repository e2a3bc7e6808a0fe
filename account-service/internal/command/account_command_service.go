package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/events"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

// UserWriter is the write store the command service mutates.
type UserWriter interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
	UpdateProfileImage(ctx context.Context, userID int64, image []byte) error
}

// ViewCache keeps the Redis read model in step with the write store.
type ViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, userID int64)
}

type RecoveryGrants interface {
	Consume(ctx context.Context, email, token string) (bool, error)
	// Restore puts back a consumed grant unless a newer one was issued.
	Restore(ctx context.Context, email, token string) error
	Revoke(ctx context.Context, email string) error
}

type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type Options struct {
	// RequireRecoveryToken makes ResetPassword refuse calls that do not carry
	// a grant from a successful security answer check.
	RequireRecoveryToken bool
}

// AccountCommandService writes account state to PostgreSQL, keeps the
// Redis read model current and publishes user events.
type AccountCommandService struct {
	writeRepo UserWriter
	views     ViewCache
	grants    RecoveryGrants
	hasher    utils.Hasher
	publisher Publisher
	opts      Options
}

func NewAccountCommandService(
	writeRepo UserWriter,
	views ViewCache,
	grants RecoveryGrants,
	hasher utils.Hasher,
	publisher Publisher,
	opts Options,
) *AccountCommandService {
	return &AccountCommandService{
		writeRepo: writeRepo,
		views:     views,
		grants:    grants,
		hasher:    hasher,
		publisher: publisher,
		opts:      opts,
	}
}

// Register creates a user and returns its id. The existence check only
// produces a friendlier error; the unique index decides races.
func (s *AccountCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (int64, error) {
	name := strings.TrimSpace(cmd.Name)
	email := utils.NormalizeEmail(cmd.Email)
	question := cmd.SecurityQuestion
	answer := utils.NormalizeAnswer(cmd.SecurityAnswer)

	switch {
	case name == "":
		return 0, apperr.Validation("name is required")
	case email == "":
		return 0, apperr.Validation("email is required")
	case cmd.Password == "":
		return 0, apperr.Validation("password is required")
	case strings.TrimSpace(question) == "":
		return 0, apperr.Validation("security question is required")
	case answer == "":
		return 0, apperr.Validation("security answer is required")
	}

	exists, err := s.writeRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, apperr.ErrDuplicateEmail
	}

	passwordHash, err := s.hashSecret("password", cmd.Password)
	if err != nil {
		return 0, err
	}
	answerHash, err := s.hashSecret("security answer", answer)
	if err != nil {
		return 0, err
	}

	user := &models.User{
		Name:               name,
		Email:              email,
		PasswordHash:       passwordHash,
		SecurityQuestion:   question,
		SecurityAnswerHash: answerHash,
	}
	id, err := s.writeRepo.Create(ctx, user)
	if err != nil {
		return 0, err
	}

	s.views.CacheUserView(ctx, &models.UserView{UserID: id, Name: name, Email: email})
	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{UserID: id, Email: email, Name: name})
	return id, nil
}

// ResetPassword overwrites the password of the account owning cmd.Email.
// A supplied recovery token is always verified; a missing one is only
// rejected when the service requires tokens. The grant is consumed only
// once the new password is known to be acceptable, and is put back if the
// store write fails, so the caller can retry with the same token.
func (s *AccountCommandService) ResetPassword(ctx context.Context, cmd cqrs.ResetPasswordCommand) error {
	email := utils.NormalizeEmail(cmd.Email)
	if email == "" {
		return apperr.Validation("email is required")
	}
	if cmd.NewPassword == "" {
		return apperr.Validation("new password is required")
	}
	if cmd.RecoveryToken == "" && s.opts.RequireRecoveryToken {
		return apperr.ErrInvalidRecoveryToken
	}

	passwordHash, err := s.hashSecret("password", cmd.NewPassword)
	if err != nil {
		return err
	}

	if cmd.RecoveryToken != "" {
		ok, err := s.grants.Consume(ctx, email, cmd.RecoveryToken)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrInvalidRecoveryToken
		}
	}

	if err := s.writeRepo.UpdatePasswordHash(ctx, email, passwordHash); err != nil {
		if cmd.RecoveryToken != "" {
			if rerr := s.grants.Restore(ctx, email, cmd.RecoveryToken); rerr != nil {
				logging.FromContext(ctx).Warn("failed to restore recovery grant", "err", rerr)
			}
		}
		return err
	}

	// A reset without a token leaves any grant from an earlier answer check
	// behind; it must not outlive the password it was issued against.
	if cmd.RecoveryToken == "" {
		if err := s.grants.Revoke(ctx, email); err != nil {
			logging.FromContext(ctx).Warn("failed to revoke recovery grant", "err", err)
		}
	}

	s.publish(ctx, events.UserPasswordReset, events.UserPasswordResetEvent{Email: email})
	return nil
}

// UploadProfileImage replaces the stored image. Any image/* content type is
// accepted; the bytes are served back as JPEG.
func (s *AccountCommandService) UploadProfileImage(ctx context.Context, cmd cqrs.UploadProfileImageCommand) error {
	if cmd.UserID <= 0 {
		return apperr.Validation("userId is required")
	}
	if len(cmd.Image) == 0 {
		return apperr.Validation("profile_image is required")
	}
	if !acceptedImageType(cmd.ContentType) {
		return apperr.Validation(fmt.Sprintf("unsupported content type %q", cmd.ContentType))
	}

	if err := s.writeRepo.UpdateProfileImage(ctx, cmd.UserID, cmd.Image); err != nil {
		return err
	}

	s.views.InvalidateUserView(ctx, cmd.UserID)
	s.publish(ctx, events.UserProfileImageUpdated, events.UserProfileImageUpdatedEvent{UserID: cmd.UserID, Size: len(cmd.Image)})
	return nil
}

// HandleUserEvent is the Redis stream subscriber handler. It writes an audit
// line per event. Grants are settled synchronously by ResetPassword, since a
// late event could otherwise revoke a grant issued after the reset.
func (s *AccountCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	log := logging.FromContext(ctx).With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case events.UserRegistered:
		data, err := events.Decode[events.UserRegisteredEvent](event)
		if err != nil {
			return err
		}
		log.Info("audit: account registered", "user_id", data.UserID)
	case events.UserPasswordReset:
		data, err := events.Decode[events.UserPasswordResetEvent](event)
		if err != nil {
			return err
		}
		log.Info("audit: password reset", "email", data.Email)
	case events.UserProfileImageUpdated:
		data, err := events.Decode[events.UserProfileImageUpdatedEvent](event)
		if err != nil {
			return err
		}
		log.Info("audit: profile image updated", "user_id", data.UserID, "size", data.Size)
	default:
		log.Debug("audit: ignoring event")
	}
	return nil
}

func (s *AccountCommandService) hashSecret(field, secret string) (string, error) {
	hash, err := s.hasher.Hash(secret)
	if errors.Is(err, utils.ErrSecretTooLong) {
		return "", apperr.Validation(fmt.Sprintf("%s must be at most %d bytes", field, utils.MaxSecretBytes))
	}
	if err != nil {
		return "", apperr.Store(err)
	}
	return hash, nil
}

// publish never fails the request; the write already happened.
func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		logging.FromContext(ctx).Warn("failed to publish event", "event_type", eventType, "err", err)
	}
}

func acceptedImageType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || ct == "application/octet-stream" || strings.HasPrefix(ct, "image/")
}
