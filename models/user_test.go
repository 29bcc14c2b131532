package models

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLockoutAfterFiveFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := User{}

	for i := 0; i < MaxLoginAttempts-1; i++ {
		u.RegisterFailedLogin(now)
		if u.IsLocked(now) {
			t.Fatalf("locked after %d failures", i+1)
		}
	}

	u.RegisterFailedLogin(now)
	if !u.IsLocked(now) {
		t.Fatal("fifth failure should lock the account")
	}
	if u.LockUntil == nil || !u.LockUntil.Equal(now.Add(LockoutDuration)) {
		t.Fatalf("lock until = %v, want %v", u.LockUntil, now.Add(LockoutDuration))
	}

	// Still locked just before expiry, open right after.
	if !u.IsLocked(now.Add(LockoutDuration - time.Minute)) {
		t.Fatal("should still be locked")
	}
	if u.IsLocked(now.Add(LockoutDuration)) {
		t.Fatal("lock should have expired")
	}
}

func TestFailureAfterExpiredLockResetsCounter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := User{}
	for i := 0; i < MaxLoginAttempts; i++ {
		u.RegisterFailedLogin(now)
	}

	later := now.Add(LockoutDuration + time.Minute)
	u.RegisterFailedLogin(later)

	if u.LoginAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", u.LoginAttempts)
	}
	if u.IsLocked(later) {
		t.Fatal("expired lock should not persist")
	}
}

func TestResetLoginAttempts(t *testing.T) {
	now := time.Now().UTC()
	u := User{}
	for i := 0; i < MaxLoginAttempts; i++ {
		u.RegisterFailedLogin(now)
	}

	u.ResetLoginAttempts()
	if u.LoginAttempts != 0 || u.LockUntil != nil {
		t.Fatal("reset should clear counter and lock")
	}
	if u.IsLocked(now) {
		t.Fatal("reset account should not be locked")
	}
}

// sqlCapture records every statement gorm would send, for dry-run
// assertions against raw SQL paths.
type sqlCapture struct {
	queries []string
}

func (c *sqlCapture) LogMode(logger.LogLevel) logger.Interface      { return c }
func (c *sqlCapture) Info(context.Context, string, ...interface{})  {}
func (c *sqlCapture) Warn(context.Context, string, ...interface{})  {}
func (c *sqlCapture) Error(context.Context, string, ...interface{}) {}
func (c *sqlCapture) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	c.queries = append(c.queries, sql)
}

func dryRunDB(t *testing.T, capture *sqlCapture) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               capture,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

// The persisted lockout path is one conditional UPDATE so concurrent
// failures cannot lose increments. Pin the statement it sends: the
// expired-lock reset to 1, the lock set at the limit, and the lock
// timestamp bound to now plus the lockout window.
func TestRecordFailedLoginStatement(t *testing.T) {
	capture := &sqlCapture{}
	db := dryRunDB(t, capture)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := RecordFailedLogin(db, "users", 7, now); err != nil {
		t.Fatalf("record failed login: %v", err)
	}
	if len(capture.queries) != 1 {
		t.Fatalf("statements sent = %d, want 1", len(capture.queries))
	}

	sql := capture.queries[0]
	for _, want := range []string{
		"UPDATE users SET",
		"THEN 1",
		"ELSE login_attempts + 1 END",
		"THEN NULL",
		fmt.Sprintf("login_attempts + 1 >= %d", MaxLoginAttempts),
		now.Add(LockoutDuration).Format("2006-01-02 15:04:05"),
		"WHERE id = 7",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("statement missing %q:\n%s", want, sql)
		}
	}

	// Same rules as the in-memory twin: the lock lands on the fifth
	// failure for two hours.
	u := User{LoginAttempts: MaxLoginAttempts - 1}
	u.RegisterFailedLogin(now)
	if u.LockUntil == nil || !u.LockUntil.Equal(now.Add(LockoutDuration)) {
		t.Fatalf("in-memory lock = %v, want %v", u.LockUntil, now.Add(LockoutDuration))
	}
}

func TestPublicUserCarriesNoSecrets(t *testing.T) {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	verified := true
	u := User{
		FirstName:          "Ada",
		LastName:           "Lovelace",
		Email:              "ada@example.com",
		Password:           "$2a$12$hash",
		PasswordResetToken: "deadbeef",
		LoginAttempts:      3,
		DateOfBirth:        &dob,
		IsVerified:         &verified,
	}

	pub := u.Public()
	if pub.Email != u.Email || pub.FirstName != "Ada" {
		t.Fatal("public view lost profile fields")
	}
	if pub.DateOfBirth == nil || !pub.DateOfBirth.Equal(dob) {
		t.Fatal("public view lost date of birth")
	}
	// PublicUser has no credential fields at all; this test exists to
	// pin the full field mapping.
	if pub.IsVerified == nil || !*pub.IsVerified {
		t.Fatal("public view lost verification flag")
	}
}
