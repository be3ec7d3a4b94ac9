package repository

import (
	"errors"
	"testing"
)

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite operator want LIKE got %s", got)
	}
	if got := likeOperatorByDialect(""); got != "LIKE" {
		t.Fatalf("empty dialect operator want LIKE got %s", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("UNIQUE constraint failed: coupons.code"), true},
		{errors.New("ERROR: duplicate key value violates unique constraint \"idx_coupons_code\" (SQLSTATE 23505)"), true},
		{errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("isUniqueViolation(%v) want %v got %v", tc.err, tc.want, got)
		}
	}
}
