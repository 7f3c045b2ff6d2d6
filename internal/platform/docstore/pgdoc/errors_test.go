package pgdoc

import (
	"fmt"
	"testing"

	perr "popreel/internal/platform/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBErrLabelsOperation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		op   string
		want perr.ErrorCode
	}{
		{"duplicate insert", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), "commit", perr.ErrorCodeConflict},
		{"check violation", &pgconn.PgError{Code: "23514"}, "commit", perr.ErrorCodeValidation},
		{"our code survives", perr.NotFoundf("videos/v1"), "get", perr.ErrorCodeNotFound},
		{"foreign error", fmt.Errorf("socket closed"), "query", perr.ErrorCodeDB},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dbErr(tc.err, tc.op, "msg")
			e, ok := perr.As(got)
			if !ok {
				t.Fatalf("not a perr: %v", got)
			}
			if e.Code() != tc.want || e.Op() != tc.op {
				t.Fatalf("code = %v op = %q, want %v %q", e.Code(), e.Op(), tc.want, tc.op)
			}
		})
	}
}
