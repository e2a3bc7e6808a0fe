package query

import (
	"context"
	"errors"
	"time"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

// UserReader is the read side of the credential store.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfileImage(ctx context.Context, userID int64) ([]byte, error)
	GetViewByID(ctx context.Context, userID int64) (*models.UserView, error)
}

type GrantIssuer interface {
	Issue(ctx context.Context, email string) (string, error)
}

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// AccountQueryService answers login, the recovery checks and profile reads.
// Issuing a recovery grant is its only write, and that lives in Redis.
type AccountQueryService struct {
	readRepo  UserReader
	grants    GrantIssuer
	hasher    utils.Hasher
	token     TokenConfig
	dummyHash string
}

func NewAccountQueryService(readRepo UserReader, grants GrantIssuer, hasher utils.Hasher, token TokenConfig) (*AccountQueryService, error) {
	// Compared against when the email is unknown so both login failures
	// cost one hash verification.
	dummyHash, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &AccountQueryService{
		readRepo:  readRepo,
		grants:    grants,
		hasher:    hasher,
		token:     token,
		dummyHash: dummyHash,
	}, nil
}

// Login never reveals whether the email exists: unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *AccountQueryService) Login(ctx context.Context, q cqrs.LoginQuery) (*models.LoginResult, error) {
	email := utils.NormalizeEmail(q.Email)
	if email == "" || q.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.readRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		s.hasher.Check(q.Password, s.dummyHash)
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Check(q.Password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	token, err := middleware.NewToken(s.token.Secret, user.ID, user.Email, s.token.TTL)
	if err != nil {
		return nil, apperr.Store(err)
	}

	return &models.LoginResult{
		User: models.UserProfile{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Photo:  utils.PhotoDataURI(user.ProfileImage),
		},
		Token: token,
	}, nil
}

// CheckEmail is step 1 of password recovery.
func (s *AccountQueryService) CheckEmail(ctx context.Context, q cqrs.CheckEmailQuery) error {
	email := utils.NormalizeEmail(q.Email)
	if email == "" {
		return apperr.Validation("email is required")
	}
	_, err := s.readRepo.GetByEmail(ctx, email)
	return err
}

// CheckSecurityAnswer is step 2 of password recovery. A wrong question and a
// wrong answer are indistinguishable to the caller. On success it returns a
// single-use recovery token for ResetPassword.
func (s *AccountQueryService) CheckSecurityAnswer(ctx context.Context, q cqrs.CheckSecurityAnswerQuery) (string, error) {
	email := utils.NormalizeEmail(q.Email)
	if email == "" || q.SecurityQuestion == "" || q.SecurityAnswer == "" {
		return "", apperr.Validation("email, securityQuestion and securityAnswer are required")
	}

	user, err := s.readRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	questionOK := q.SecurityQuestion == user.SecurityQuestion
	answerOK := s.hasher.Check(utils.NormalizeAnswer(q.SecurityAnswer), user.SecurityAnswerHash)
	if !questionOK || !answerOK {
		return "", apperr.ErrSecurityMismatch
	}

	return s.grants.Issue(ctx, email)
}

func (s *AccountQueryService) FetchProfileImage(ctx context.Context, q cqrs.FetchProfileImageQuery) ([]byte, error) {
	if q.UserID <= 0 {
		return nil, apperr.Validation("userId must be a positive integer")
	}
	return s.readRepo.GetProfileImage(ctx, q.UserID)
}

func (s *AccountQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.UserView, error) {
	return s.readRepo.GetViewByID(ctx, q.UserID)
}
