package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newAuth(t *testing.T) (*AuthService, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := &AuthService{
		DB:              newServiceDB(t),
		JWTSecret:       []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		PasswordMinLen:  8,
		Now:             func() time.Time { return clock },
	}
	return svc, &clock
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.c", "reader", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password: %v", err)
	}

	u, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash == "correct horse battery" || u.PasswordHash == "" {
		t.Fatal("password stored in the clear")
	}
	if u.Role != "user" {
		t.Fatalf("role = %q", u.Role)
	}

	if _, err := svc.Register(ctx, "a@b.c", "other", "correct horse battery"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: %v", err)
	}
	if _, err := svc.Register(ctx, "x@y.z", "reader", "correct horse battery"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: %v", err)
	}
}

func TestLogin_IssuesVerifiableAccessToken(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "a@b.c", "wrong password!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@b.c", "correct horse battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}

	pair, err := svc.Login(ctx, "a@b.c", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "Bearer" {
		t.Fatalf("pair = %+v", pair)
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != "a@b.c" || claims.Role != "user" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyAccess_Expiry(t *testing.T) {
	svc, clock := newAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery"); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := svc.Login(ctx, "a@b.c", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	*clock = clock.Add(16 * time.Minute)
	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired access token: %v", err)
	}

	if _, err := svc.VerifyAccess("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage token: %v", err)
	}
}

func TestRefresh_RotatesAndDetectsReplay(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery"); err != nil {
		t.Fatalf("register: %v", err)
	}
	first, err := svc.Login(ctx, "a@b.c", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// Replaying the consumed token must fail.
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("replay: %v", err)
	}
	// The rotated token still works.
	if _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("rotated token: %v", err)
	}

	if _, err := svc.Refresh(ctx, "never-issued"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown token: %v", err)
	}
}

func TestRefresh_Expiry(t *testing.T) {
	svc, clock := newAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery"); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := svc.Login(ctx, "a@b.c", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	*clock = clock.Add(8 * 24 * time.Hour)
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired refresh: %v", err)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.c", "reader", "correct horse battery"); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := svc.Login(ctx, "a@b.c", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("token usable after logout: %v", err)
	}
	if err := svc.Logout(ctx, "never-issued"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown token: %v", err)
	}
}

func TestLibrary_ProgressAndHistory(t *testing.T) {
	db := newServiceDB(t)
	auth := &AuthService{DB: db, JWTSecret: []byte("s"), AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour, PasswordMinLen: 8}
	lib := &LibraryService{DB: db}
	ctx := context.Background()

	u, err := auth.Register(ctx, "a@b.c", "reader", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := lib.GetProgress(ctx, u.ID, "m1"); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("missing progress: %v", err)
	}

	if err := lib.UpdateProgress(ctx, u.ID, "m1", "ch1", 0); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := lib.UpdateProgress(ctx, u.ID, "m1", "ch2", 5); err != nil {
		t.Fatalf("second update: %v", err)
	}

	p, err := lib.GetProgress(ctx, u.ID, "m1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.ChapterMangadexID != "ch2" || p.PageNumber != 5 {
		t.Fatalf("progress = %+v", p)
	}

	items, total, err := lib.HistoryPage(ctx, u.ID, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("history total=%d len=%d", total, len(items))
	}

	// MarkRead appends to the log without moving the position.
	if err := lib.MarkRead(ctx, u.ID, "m1", "ch3"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, total, _ = lib.HistoryPage(ctx, u.ID, 1, 10); total != 3 {
		t.Fatalf("history after mark = %d; want 3", total)
	}
	if p, _ := lib.GetProgress(ctx, u.ID, "m1"); p.ChapterMangadexID != "ch2" {
		t.Fatalf("position moved by MarkRead: %+v", p)
	}

	all, err := lib.ListProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(all) != 1 || all[0].MangaMangadexID != "m1" {
		t.Fatalf("progress list = %+v", all)
	}
}
