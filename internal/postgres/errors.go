// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConnTimeout = errors.New("connection timeout")
	ErrNoRows      = errors.New("no rows")
)

type ErrRelationDoesNotExist struct {
	Details string
}

func (e *ErrRelationDoesNotExist) Error() string {
	return fmt.Sprintf("relation does not exist: %s", e.Details)
}

type ErrRelationAlreadyExists struct {
	Details string
}

func (e *ErrRelationAlreadyExists) Error() string {
	return fmt.Sprintf("relation already exists: %s", e.Details)
}

type ErrSyntaxError struct {
	Details string
}

func (e *ErrSyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Details)
}

type ErrPermissionDenied struct {
	Details string
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Details)
}

type ErrDataException struct {
	Details string
}

func (e *ErrDataException) Error() string {
	return fmt.Sprintf("data exception: %s", e.Details)
}

type ErrConstraintViolation struct {
	Details string
}

func (e *ErrConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Details)
}

// MapError converts postgres errors into the package error types. Unknown
// errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if pgconn.Timeout(err) {
		return ErrConnTimeout
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgerrcode.UndefinedTable,
		pgErr.Code == pgerrcode.UndefinedColumn,
		pgErr.Code == pgerrcode.UndefinedObject:
		return &ErrRelationDoesNotExist{Details: pgErr.Message}
	case pgErr.Code == pgerrcode.DuplicateTable,
		pgErr.Code == pgerrcode.DuplicateColumn,
		pgErr.Code == pgerrcode.DuplicateObject:
		return &ErrRelationAlreadyExists{Details: pgErr.Message}
	case pgErr.Code == pgerrcode.SyntaxError,
		pgErr.Code == pgerrcode.SyntaxErrorOrAccessRuleViolation:
		return &ErrSyntaxError{Details: pgErr.Message}
	case pgErr.Code == pgerrcode.InsufficientPrivilege,
		pgErr.Code == pgerrcode.InvalidPassword,
		pgErr.Code == pgerrcode.InvalidAuthorizationSpecification:
		return &ErrPermissionDenied{Details: pgErr.Message}
	case pgerrcode.IsDataException(pgErr.Code):
		return &ErrDataException{Details: pgErr.Message}
	case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
		return &ErrConstraintViolation{Details: pgErr.Message}
	}

	return err
}
