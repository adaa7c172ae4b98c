package outcome

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"gorm.io/gorm"
)

func TestFromStore_StructuredMapping(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want Code
	}{
		{"record not found", gorm.ErrRecordNotFound, CodeNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, CodeConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, CodeConflict},
		{"exclusion violation", &pgconn.PgError{Code: "23P01"}, CodeConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, CodeConflict},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, CodeConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, CodeConflict},
		{"unexpected pg error", &pgconn.PgError{Code: "42703"}, CodeInternal},
		{"plain error", errors.New("boom"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromStore(tc.in)
			r, ok := AsRejection(got)
			if !ok {
				t.Fatalf("expected rejection, got %T", got)
			}
			if r.Code != tc.want {
				t.Fatalf("code = %s, want %s", r.Code, tc.want)
			}
		})
	}
}

func TestFromStore_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create booking: %w", &pgconn.PgError{Code: "23505"})
	r, ok := AsRejection(FromStore(wrapped))
	if !ok || r.Code != CodeConflict {
		t.Fatalf("wrapped pg error not recognized: %v", r)
	}
}

func TestFromStore_PassesRejectionsThrough(t *testing.T) {
	orig := Forbidden("not the booking owner")
	got := FromStore(fmt.Errorf("cancel: %w", orig))
	r, ok := AsRejection(got)
	if !ok {
		t.Fatalf("expected rejection, got %T", got)
	}
	if r != orig {
		t.Fatalf("rejection was rewritten: %v", r)
	}
}

func TestFromStore_Nil(t *testing.T) {
	if err := FromStore(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestGRPCStatus(t *testing.T) {
	cases := []struct {
		in   error
		want codes.Code
	}{
		{NotFound("slot not found"), codes.NotFound},
		{InvalidRequest("slot in the past"), codes.InvalidArgument},
		{Forbidden("not the booking owner"), codes.PermissionDenied},
		{Conflict("slot unavailable"), codes.AlreadyExists},
		{RateLimited("rate limit exceeded"), codes.ResourceExhausted},
		{Internal("storage failure"), codes.Internal},
		{errors.New("boom"), codes.Internal},
		{nil, codes.OK},
	}

	for _, tc := range cases {
		if got := GRPCStatus(tc.in).Code(); got != tc.want {
			t.Fatalf("GRPCStatus(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q, want empty", got)
	}
	if got := CodeOf(Conflict("x")); got != CodeConflict {
		t.Fatalf("CodeOf = %s, want conflict", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("CodeOf = %s, want internal", got)
	}
}
