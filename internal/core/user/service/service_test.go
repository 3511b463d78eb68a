package userapp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"linkup/internal/core/apperror"
	userEntity "linkup/internal/core/user"
	"linkup/internal/testutil/memstore"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type captureMailer struct {
	mu    sync.Mutex
	codes map[string][]string
	err   error
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.codes == nil {
		m.codes = map[string][]string{}
	}
	m.codes[to] = append(m.codes[to], code)
	return nil
}

func (m *captureMailer) last(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.codes[to]
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService() (*UserService, *memstore.Store, *captureMailer, *clock) {
	store := memstore.New()
	mailer := &captureMailer{}
	svc := NewUserService(store.UnitOfWork(), mailer, []byte("test-secret"), time.Hour, zap.NewNop())
	svc.hashCost = bcrypt.MinCost
	c := &clock{t: time.Now()}
	svc.now = c.now
	return svc, store, mailer, c
}

func register(t *testing.T, svc *UserService, email string) uuid.UUID {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), email, "password123", "Test", "User")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	return uuid.FromStringOrNil(u.ID)
}

func TestRegisterUser_CreatesUserAndPublicProfile(t *testing.T) {
	svc, store, _, _ := newTestService()

	u, err := svc.RegisterUser(context.Background(), "  Jane@Example.COM ", "password123", "Jane", "Doe")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if u.Email != "jane@example.com" || u.Role != userEntity.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}

	snap := store.Dump()
	id := uuid.FromStringOrNil(u.ID)
	stored := snap.Users[id]
	if stored.PasswordHash == "password123" {
		t.Fatalf("password stored in clear")
	}
	p, ok := snap.Profiles[id]
	if !ok || !p.IsPublic || p.FullName() != "Jane Doe" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name, email, password, first, last string
	}{
		{"bad email", "not-an-email", "password123", "A", "B"},
		{"short password", "a@example.com", "short", "A", "B"},
		{"missing name", "a@example.com", "password123", " ", "B"},
		{"long name", "a@example.com", "password123", strings.Repeat("n", maxNameLength+1), "B"},
	}
	for _, tc := range cases {
		if _, err := svc.RegisterUser(ctx, tc.email, tc.password, tc.first, tc.last); !apperror.Is(err, apperror.KindInvalid) {
			t.Errorf("%s: expected invalid, got %v", tc.name, err)
		}
	}
	if store.Dump().Rows() != 0 {
		t.Fatalf("invalid registrations must not be stored")
	}
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	svc, store, _, _ := newTestService()
	register(t, svc, "dup@example.com")

	_, err := svc.RegisterUser(context.Background(), "DUP@example.com", "password123", "Other", "User")
	if !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := len(store.Dump().Users); n != 1 {
		t.Fatalf("expected one user, got %d", n)
	}
}

func TestLoginAndParseToken(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	id := register(t, svc, "login@example.com")

	if _, err := svc.LoginUser(ctx, "login@example.com", "wrong-password"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Fatalf("wrong password: expected unauthorized, got %v", err)
	}
	if _, err := svc.LoginUser(ctx, "nobody@example.com", "password123"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Fatalf("unknown email: expected unauthorized, got %v", err)
	}

	res, err := svc.LoginUser(ctx, "LOGIN@example.com", "password123")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	claims, err := svc.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != userEntity.RoleUser || claims.Email != "login@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewUserService(nil, nil, []byte("another-secret"), time.Hour, zap.NewNop())
	if _, err := other.ParseToken(res.Token); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
}

func TestParseToken_RejectsForeignIssuerAndExpiry(t *testing.T) {
	svc, _, _, _ := newTestService()
	sign := func(c *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(svc.jwtKey)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	id := uuid.Must(uuid.NewV4()).String()
	future := time.Now().Add(time.Hour).Unix()

	foreign := sign(&Claims{StandardClaims: jwt.StandardClaims{Subject: id, Issuer: "someone-else", ExpiresAt: future}})
	if _, err := svc.ParseToken(foreign); err == nil {
		t.Fatalf("foreign issuer accepted")
	}
	expired := sign(&Claims{StandardClaims: jwt.StandardClaims{Subject: id, Issuer: tokenIssuer, ExpiresAt: time.Now().Add(-time.Minute).Unix()}})
	if _, err := svc.ParseToken(expired); err == nil {
		t.Fatalf("expired token accepted")
	}
	badSubject := sign(&Claims{StandardClaims: jwt.StandardClaims{Subject: "42", Issuer: tokenIssuer, ExpiresAt: future}})
	if _, err := svc.ParseToken(badSubject); err == nil {
		t.Fatalf("non-uuid subject accepted")
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	id := register(t, svc, "change@example.com")

	if err := svc.ChangePassword(ctx, id, "wrong-current", "new-password"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Fatalf("wrong current: expected unauthorized, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "password123", "short"); !apperror.Is(err, apperror.KindInvalid) {
		t.Fatalf("short new password: expected invalid, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "password123", "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.LoginUser(ctx, "change@example.com", "new-password"); err != nil {
		t.Fatalf("login with the new password: %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, store, mailer, _ := newTestService()
	ctx := context.Background()
	register(t, svc, "reset@example.com")

	if err := svc.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must succeed silently: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "Reset@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code := mailer.last("reset@example.com")
	if len(code) != 6 {
		t.Fatalf("expected a 6 digit code, got %q", code)
	}
	for _, rc := range store.Dump().ResetCodes {
		if rc.CodeHash == code {
			t.Fatalf("reset code stored in clear")
		}
	}

	if err := svc.ResetPassword(ctx, "reset@example.com", "000000x", "brand-new-pass"); !errors.Is(err, errInvalidResetCode) {
		t.Fatalf("wrong code: expected the uniform error, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "reset@example.com", code, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.LoginUser(ctx, "reset@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, "reset@example.com", code, "another-pass"); !errors.Is(err, errInvalidResetCode) {
		t.Fatalf("reused code: expected the uniform error, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "nobody@example.com", code, "another-pass"); !errors.Is(err, errInvalidResetCode) {
		t.Fatalf("unknown email: expected the uniform error, got %v", err)
	}
}

func TestForgotPassword_CooldownAndReplacement(t *testing.T) {
	svc, store, mailer, clk := newTestService()
	ctx := context.Background()
	register(t, svc, "cool@example.com")

	if err := svc.ForgotPassword(ctx, "cool@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	first := mailer.last("cool@example.com")

	clk.advance(10 * time.Second)
	if err := svc.ForgotPassword(ctx, "cool@example.com"); err != nil {
		t.Fatalf("ForgotPassword inside cooldown: %v", err)
	}
	if n := len(mailer.codes["cool@example.com"]); n != 1 {
		t.Fatalf("cooldown must suppress a second mail, sent %d", n)
	}

	clk.advance(resetCodeCooldown)
	if err := svc.ForgotPassword(ctx, "cool@example.com"); err != nil {
		t.Fatalf("ForgotPassword after cooldown: %v", err)
	}
	second := mailer.last("cool@example.com")

	active := 0
	for _, rc := range store.Dump().ResetCodes {
		if !rc.IsUsed {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("a new code must invalidate the old ones, %d active", active)
	}
	if first != second {
		if err := svc.ResetPassword(ctx, "cool@example.com", first, "brand-new-pass"); !errors.Is(err, errInvalidResetCode) {
			t.Fatalf("superseded code: expected the uniform error, got %v", err)
		}
	}
	if err := svc.ResetPassword(ctx, "cool@example.com", second, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword with the latest code: %v", err)
	}
}

func TestResetPassword_ExpiryAndAttemptLimit(t *testing.T) {
	svc, _, mailer, clk := newTestService()
	ctx := context.Background()
	register(t, svc, "limit@example.com")

	if err := svc.ForgotPassword(ctx, "limit@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code := mailer.last("limit@example.com")
	wrong := "999999"
	if wrong == code {
		wrong = "888888"
	}
	for i := 0; i < maxResetCodeAttempts; i++ {
		if err := svc.ResetPassword(ctx, "limit@example.com", wrong, "brand-new-pass"); !errors.Is(err, errInvalidResetCode) {
			t.Fatalf("attempt %d: expected the uniform error, got %v", i+1, err)
		}
	}
	if err := svc.ResetPassword(ctx, "limit@example.com", code, "brand-new-pass"); !errors.Is(err, errInvalidResetCode) {
		t.Fatalf("correct code after the attempt limit: expected the uniform error, got %v", err)
	}

	clk.advance(resetCodeCooldown)
	if err := svc.ForgotPassword(ctx, "limit@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	code = mailer.last("limit@example.com")
	clk.advance(resetCodeTTL + time.Second)
	if err := svc.ResetPassword(ctx, "limit@example.com", code, "brand-new-pass"); !errors.Is(err, errInvalidResetCode) {
		t.Fatalf("expired code: expected the uniform error, got %v", err)
	}
}

func TestForgotPassword_MailFailureIsReported(t *testing.T) {
	svc, _, mailer, _ := newTestService()
	register(t, svc, "mail@example.com")
	mailer.err = errors.New("smtp down")

	if err := svc.ForgotPassword(context.Background(), "mail@example.com"); err == nil {
		t.Fatalf("expected the mail error")
	}
}

func TestRegisterUser_RejectsDisplayNameAddresses(t *testing.T) {
	svc, store, _, _ := newTestService()

	for _, email := range []string{"Bob <bob@example.com>", "<bob@example.com>", "bob@", "bob example.com"} {
		if _, err := svc.RegisterUser(context.Background(), email, "password123", "Bob", "B"); !apperror.Is(err, apperror.KindInvalid) {
			t.Errorf("%q: expected invalid, got %v", email, err)
		}
	}
	if n := len(store.Dump().Users); n != 0 {
		t.Fatalf("rejected addresses must not be stored, got %d users", n)
	}
}

func TestChangeEmail(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	id := register(t, svc, "first@example.com")
	register(t, svc, "taken@example.com")

	if _, err := svc.ChangeEmail(ctx, id, " FIRST@example.com "); !apperror.Is(err, apperror.KindForbidden) {
		t.Fatalf("unchanged email: expected forbidden, got %v", err)
	}
	if _, err := svc.ChangeEmail(ctx, id, "Taken@Example.com"); !apperror.Is(err, apperror.KindConflict) {
		t.Fatalf("taken email: expected conflict, got %v", err)
	}
	if _, err := svc.ChangeEmail(ctx, id, "Bob <bob@example.com>"); !apperror.Is(err, apperror.KindInvalid) {
		t.Fatalf("display-name email: expected invalid, got %v", err)
	}
	if _, err := svc.ChangeEmail(ctx, uuid.Must(uuid.NewV4()), "ghost@example.com"); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("unknown user: expected not found, got %v", err)
	}

	u, err := svc.ChangeEmail(ctx, id, "  Second@Example.com")
	if err != nil {
		t.Fatalf("ChangeEmail: %v", err)
	}
	if u.Email != "second@example.com" || store.Dump().Users[id].Email != "second@example.com" {
		t.Fatalf("email not normalized and stored: %+v", u)
	}
	if _, err := svc.LoginUser(ctx, "first@example.com", "password123"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Fatalf("old email must stop working, got %v", err)
	}
	if _, err := svc.LoginUser(ctx, "second@example.com", "password123"); err != nil {
		t.Fatalf("login with the new email: %v", err)
	}
}

func TestSetRole(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	root := register(t, svc, "root@example.com")
	target := register(t, svc, "target@example.com")

	u, err := svc.SetRole(ctx, root, target, " ADMIN ")
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if u.Role != userEntity.RoleAdmin || store.Dump().Users[target].Role != userEntity.RoleAdmin {
		t.Fatalf("role not stored: %+v", u)
	}

	cases := []struct {
		name   string
		target uuid.UUID
		role   string
		kind   apperror.Kind
	}{
		{"blank role", target, "  ", apperror.KindInvalid},
		{"unknown role", target, "owner", apperror.KindInvalid},
		{"self demotion", root, userEntity.RoleAdmin, apperror.KindInvalid},
		{"unknown user", uuid.Must(uuid.NewV4()), userEntity.RoleUser, apperror.KindNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.SetRole(ctx, root, tc.target, tc.role); !apperror.Is(err, tc.kind) {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.kind, err)
		}
	}

	if _, err := svc.SetRole(ctx, root, root, "SuperAdmin"); err != nil {
		t.Fatalf("keeping your own superadmin role: %v", err)
	}
	if store.Dump().Users[root].Role != userEntity.RoleSuperAdmin {
		t.Fatalf("superadmin role not stored")
	}
}
