package database

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"mysql invalid conn", mysql.ErrInvalidConn, true},
		{"mysql deadlock", &mysql.MySQLError{Number: mysqlDeadlockDetected}, true},
		{"mysql lock wait", fmt.Errorf("delete: %w", &mysql.MySQLError{Number: mysqlLockWaitTimeout}), true},
		{"mysql duplicate", &mysql.MySQLError{Number: mysqlDuplicateEntry}, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"not found", gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsDuplicateKey(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", gorm.ErrDuplicatedKey, true},
		{"mysql", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: mysqlDuplicateEntry}), true},
		{"mysql other", &mysql.MySQLError{Number: mysqlDeadlockDetected}, false},
		{"pg", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"plain", errors.New("Duplicate entry"), false},
	}
	for _, tc := range cases {
		if got := IsDuplicateKey(tc.err); got != tc.want {
			t.Errorf("%s: IsDuplicateKey = %v, want %v", tc.name, got, tc.want)
		}
	}
}
