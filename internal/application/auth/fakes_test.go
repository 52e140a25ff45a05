package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

/*
Fakes for ports
*/

type fakeCreds struct {
	mu      sync.Mutex
	byID    map[string]domain.Credential
	byEmail map[string]string

	getByIDErr    error
	getByEmailErr error
}

func newFakeCreds(cs ...domain.Credential) *fakeCreds {
	f := &fakeCreds{byID: map[string]domain.Credential{}, byEmail: map[string]string{}}
	for _, c := range cs {
		f.byID[c.ID] = c
		f.byEmail[c.Email] = c.ID
	}
	return f
}

func (f *fakeCreds) GetByEmail(_ context.Context, email string) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByEmailErr != nil {
		return domain.Credential{}, f.getByEmailErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return domain.Credential{}, domain.ErrIdentityNotFound()
	}
	return f.byID[id], nil
}

func (f *fakeCreds) GetByID(_ context.Context, id string) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByIDErr != nil {
		return domain.Credential{}, f.getByIDErr
	}
	c, ok := f.byID[id]
	if !ok {
		return domain.Credential{}, domain.ErrIdentityNotFound()
	}
	return c, nil
}

func (f *fakeCreds) Create(_ context.Context, c domain.Credential) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[c.Email]; ok {
		return domain.Credential{}, domain.ErrEmailAlreadyExists()
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	f.byID[c.ID] = c
	f.byEmail[c.Email] = c.ID
	return c, nil
}

func (f *fakeCreds) SetAppRole(_ context.Context, id string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return domain.ErrIdentityNotFound()
	}
	c.AppRole = role
	f.byID[id] = c
	return nil
}

// fakeHasher "hashes" by prefixing.
type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return fmt.Errorf("mismatch")
	}
	return nil
}

// fakeSigner issues sequential tokens and remembers their claims. Tokens
// listed in expired/invalid verify with the matching error.
type fakeSigner struct {
	mu      sync.Mutex
	n       int
	claims  map[string]TokenClaims
	expired map[string]bool
	signErr error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{claims: map[string]TokenClaims{}, expired: map[string]bool{}}
}

func (f *fakeSigner) SignAccessToken(userID, email, role string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signErr != nil {
		return "", f.signErr
	}
	f.n++
	tok := fmt.Sprintf("access-%d", f.n)
	f.claims[tok] = TokenClaims{UserID: userID, Email: email, Role: role, Exp: time.Now().Add(ttl)}
	return tok, nil
}

func (f *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired[token] {
		return TokenClaims{}, domain.ErrTokenExpired()
	}
	c, ok := f.claims[token]
	if !ok {
		return TokenClaims{}, domain.ErrTokenInvalid()
	}
	return c, nil
}

type fakeSessions struct {
	mu     sync.Mutex
	n      int
	tokens map[string]string // token -> user id

	createErr error
	lookupErr error
	rotateErr error
	rotations int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]string{}}
}

func (f *fakeSessions) CreateRefreshToken(_ context.Context, userID string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.n++
	tok := fmt.Sprintf("refresh-%d", f.n)
	f.tokens[tok] = userID
	return tok, nil
}

func (f *fakeSessions) RotateRefreshToken(_ context.Context, old string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rotateErr != nil {
		return "", f.rotateErr
	}
	uid, ok := f.tokens[old]
	if !ok {
		return "", domain.ErrRefreshTokenInvalid()
	}
	delete(f.tokens, old)
	f.n++
	f.rotations++
	tok := fmt.Sprintf("refresh-%d", f.n)
	f.tokens[tok] = uid
	return tok, nil
}

func (f *fakeSessions) RevokeRefreshToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, uid := range f.tokens {
		if uid == userID {
			delete(f.tokens, tok)
		}
	}
	return nil
}

func (f *fakeSessions) GetUserIDByRefreshToken(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	uid, ok := f.tokens[token]
	if !ok {
		return "", domain.ErrRefreshTokenInvalid()
	}
	return uid, nil
}

// fakeCookies uses plain "a" and "r" cookie names.
type fakeCookies struct {
	written []domain.Session
}

func (f *fakeCookies) Read(r *http.Request) (string, string) {
	var a, rt string
	if c, err := r.Cookie("a"); err == nil {
		a = c.Value
	}
	if c, err := r.Cookie("r"); err == nil {
		rt = c.Value
	}
	return a, rt
}

func (f *fakeCookies) Write(w http.ResponseWriter, s domain.Session, _ time.Duration) {
	f.written = append(f.written, s)
	http.SetCookie(w, &http.Cookie{Name: "a", Value: s.AccessToken})
	http.SetCookie(w, &http.Cookie{Name: "r", Value: s.RefreshToken})
}

func (f *fakeCookies) ApplyToRequest(r *http.Request, s domain.Session) {
	r.Header.Set("Cookie", strings.Join([]string{"a=" + s.AccessToken, "r=" + s.RefreshToken}, "; "))
}

func (f *fakeCookies) Clear(http.ResponseWriter) {}

type fakeRoleReader struct {
	role  domain.Role
	err   error
	calls int
}

func (f *fakeRoleReader) GetRole(context.Context, string) (domain.Role, error) {
	f.calls++
	return f.role, f.err
}

type auditEntry struct {
	action string
	fields map[string]string
}

type auditSink struct {
	entries []auditEntry
}

func (a *auditSink) record(action string, fields map[string]string) {
	a.entries = append(a.entries, auditEntry{action, fields})
}

func (a *auditSink) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}
