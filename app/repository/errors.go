package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError reports a unique constraint violation. Field is the
// column of the violated index when it can be derived from the driver
// message, empty otherwise.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

func translateError(err error, fields ...string) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != mysqlDuplicateEntry {
		return err
	}

	dup := &DuplicateKeyError{Err: err}
	// "Duplicate entry 'x' for key 'users.uq_users_email'"
	if idx := strings.LastIndex(mysqlErr.Message, "for key"); idx != -1 {
		key := mysqlErr.Message[idx:]
		for _, field := range fields {
			if strings.Contains(key, field) {
				dup.Field = field
				break
			}
		}
	}
	return dup
}
