package userapp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"linkup/internal/core/apperror"
	profileEntity "linkup/internal/core/profile"
	userEntity "linkup/internal/core/user"
	"linkup/internal/logging"
	userPort "linkup/internal/ports/user"
	"linkup/internal/ports/uow"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer = "linkup"

	MinPasswordLength = 8
	maxNameLength     = 50
	maxEmailLength    = 255

	resetCodeTTL         = 15 * time.Minute
	resetCodeCooldown    = 60 * time.Second
	maxResetCodeAttempts = 5
)

var validate = validator.New()

var (
	errInvalidCredentials = apperror.Unauthorized("invalid email or password")
	errInvalidResetCode   = apperror.Unauthorized("invalid or expired reset code")
)

// Claims is the JWT payload issued at login.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.StandardClaims
}

// UserService owns registration, login and password management.
type UserService struct {
	uow      uow.UnitOfWork
	mailer   userPort.Mailer
	jwtKey   []byte
	tokenTTL time.Duration
	hashCost int
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserService(u uow.UnitOfWork, mailer userPort.Mailer, jwtKey []byte, tokenTTL time.Duration, logger *zap.Logger) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{
		uow:      u,
		mailer:   mailer,
		jwtKey:   jwtKey,
		tokenTTL: tokenTTL,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail expects an already normalized address. Display names and
// angle-bracket forms are rejected.
func validateEmail(email string) error {
	if err := validate.Var(email, fmt.Sprintf("required,email,max=%d", maxEmailLength)); err != nil {
		return apperror.Invalid("email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.Invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

func (s *UserService) hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// RegisterUser creates the account and its profile in one transaction.
func (s *UserService) RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*userPort.UserDTO, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, apperror.Invalid("first and last name are required")
	}
	if utf8.RuneCountInString(firstName) > maxNameLength || utf8.RuneCountInString(lastName) > maxNameLength {
		return nil, apperror.Invalid(fmt.Sprintf("names must be at most %d characters", maxNameLength))
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	u := &userEntity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        email,
		PasswordHash: hashed,
		Role:         userEntity.RoleUser,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		existing, err := repos.Users.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if existing != nil {
			return apperror.Conflict("email already taken")
		}
		if err := repos.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		p := &profileEntity.Profile{
			UserID:    u.ID,
			FirstName: firstName,
			LastName:  lastName,
			IsPublic:  true,
		}
		if err := repos.Profiles.Create(ctx, p); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx, s.logger).Info("✅ User registered", zap.String("userID", u.ID.String()))
	return toUserDTO(u), nil
}

// LoginUser checks the credentials and issues a signed token.
func (s *UserService) LoginUser(ctx context.Context, email, password string) (*userPort.LoginResponse, error) {
	log := logging.From(ctx, s.logger)

	u, err := s.uow.Repos().Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		log.Info("Login failed: unknown email")
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Info("Login failed: wrong password", zap.String("userID", u.ID.String()))
		return nil, errInvalidCredentials
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.generateJWT(u, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("could not generate token: %w", err)
	}
	return &userPort.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

func (s *UserService) generateJWT(u *userEntity.User, expiresAt time.Time) (string, error) {
	claims := &Claims{
		Role:  u.Role,
		Email: u.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  s.now().Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtKey)
}

// ParseToken validates signature, algorithm, expiry and issuer.
func (s *UserService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	if _, err := uuid.FromString(claims.Subject); err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*userPort.UserDTO, error) {
	u, err := s.uow.Repos().Users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user", id)
	}
	return toUserDTO(u), nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	repos := s.uow.Repos()
	u, err := repos.Users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return apperror.NotFound("user", userID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	hashed, err := s.hash(next)
	if err != nil {
		return err
	}
	if err := repos.Users.UpdatePassword(ctx, u.ID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logging.From(ctx, s.logger).Info("Password changed", zap.String("userID", u.ID.String()))
	return nil
}

// ChangeEmail moves the account to a new address. The address must differ from the
// current one and must not belong to another account.
func (s *UserService) ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*userPort.UserDTO, error) {
	newEmail = normalizeEmail(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return nil, err
	}

	var updated *userEntity.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		u, err := repos.Users.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if u == nil {
			return apperror.NotFound("user", userID)
		}
		if normalizeEmail(u.Email) == newEmail {
			return apperror.Forbidden("new email must be different from the current email")
		}
		taken, err := repos.Users.FindByEmail(ctx, newEmail)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if taken != nil && taken.ID != userID {
			return apperror.Conflict("this email is already in use by another account")
		}
		if err := repos.Users.UpdateEmail(ctx, userID, newEmail); err != nil {
			return fmt.Errorf("update email: %w", err)
		}
		u.Email = newEmail
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.From(ctx, s.logger).Info("Email changed", zap.String("userID", userID.String()))
	return toUserDTO(updated), nil
}

// SetRole assigns role to target. Role names match case-insensitively. An actor cannot
// take the superadmin role away from themselves.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*userPort.UserDTO, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, apperror.Invalid("role is required")
	}
	matched := ""
	for _, r := range userEntity.Roles {
		if strings.EqualFold(r, role) {
			matched = r
			break
		}
	}
	if matched == "" {
		return nil, apperror.Invalid("invalid role " + role)
	}
	if actorID == targetID && matched != userEntity.RoleSuperAdmin {
		return nil, apperror.Invalid("you cannot remove your own superadmin role")
	}

	repos := s.uow.Repos()
	u, err := repos.Users.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user", targetID)
	}
	if err := repos.Users.UpdateRole(ctx, targetID, matched); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	u.Role = matched

	logging.From(ctx, s.logger).Info("Role changed",
		zap.String("actorID", actorID.String()), zap.String("userID", targetID.String()), zap.String("role", matched))
	return toUserDTO(u), nil
}

// ForgotPassword mails a fresh reset code. Unknown emails and requests inside the resend
// cooldown succeed silently so callers cannot tell which emails exist.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	log := logging.From(ctx, s.logger)
	email = normalizeEmail(email)

	var code string
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		u, err := repos.Users.FindByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if u == nil {
			log.Debug("Password reset requested for unknown email")
			return nil
		}

		now := s.now()
		latest, err := repos.ResetCodes.FindLatest(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("find reset code: %w", err)
		}
		if latest != nil && latest.LastSentAt != nil && now.Sub(*latest.LastSentAt) < resetCodeCooldown {
			log.Info("Password reset throttled", zap.String("userID", u.ID.String()))
			return nil
		}

		if err := repos.ResetCodes.InvalidateAll(ctx, u.ID); err != nil {
			return fmt.Errorf("invalidate reset codes: %w", err)
		}
		code, err = newResetCode()
		if err != nil {
			return err
		}
		hashed, err := s.hash(code)
		if err != nil {
			return err
		}
		rc := &userEntity.PasswordResetCode{
			ID:         uuid.Must(uuid.NewV4()),
			UserID:     u.ID,
			CodeHash:   hashed,
			ExpiresAt:  now.Add(resetCodeTTL),
			LastSentAt: &now,
		}
		if err := repos.ResetCodes.Create(ctx, rc); err != nil {
			return fmt.Errorf("create reset code: %w", err)
		}
		return nil
	})
	if err != nil || code == "" {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, email, code); err != nil {
		log.Error("❌ Could not send password reset mail", zap.Error(err))
		return fmt.Errorf("send reset mail: %w", err)
	}
	log.Info("Password reset code sent")
	return nil
}

// ResetPassword consumes a reset code. Every failure reports the same error.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	log := logging.From(ctx, s.logger)
	repos := s.uow.Repos()

	u, err := repos.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		log.Warn("⚠️ Password reset failed: unknown email")
		return errInvalidResetCode
	}

	rc, err := repos.ResetCodes.FindActive(ctx, u.ID, s.now())
	if err != nil {
		return fmt.Errorf("find reset code: %w", err)
	}
	if rc == nil {
		log.Warn("⚠️ Password reset failed: no active code", zap.String("userID", u.ID.String()))
		return errInvalidResetCode
	}

	if rc.Attempts >= maxResetCodeAttempts {
		rc.IsUsed = true
		if err := repos.ResetCodes.Update(ctx, rc); err != nil {
			return fmt.Errorf("update reset code: %w", err)
		}
		log.Warn("⚠️ Password reset failed: too many attempts", zap.String("userID", u.ID.String()))
		return errInvalidResetCode
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rc.CodeHash), []byte(code)); err != nil {
		rc.Attempts++
		if err := repos.ResetCodes.Update(ctx, rc); err != nil {
			return fmt.Errorf("update reset code: %w", err)
		}
		log.Warn("⚠️ Password reset failed: wrong code",
			zap.String("userID", u.ID.String()), zap.Int("attempt", rc.Attempts))
		return errInvalidResetCode
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if err := repos.Users.UpdatePassword(ctx, u.ID, hashed); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		rc.IsUsed = true
		if err := repos.ResetCodes.Update(ctx, rc); err != nil {
			return fmt.Errorf("update reset code: %w", err)
		}
		log.Info("✅ Password reset", zap.String("userID", u.ID.String()))
		return nil
	})
}

func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func toUserDTO(u *userEntity.User) *userPort.UserDTO {
	return &userPort.UserDTO{
		ID:    u.ID.String(),
		Email: u.Email,
		Role:  u.Role,
	}
}
