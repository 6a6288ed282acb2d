package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the key list from "Key (a, b)=(x, y) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// tableNouns maps tables to the nouns used in client-facing messages.
var tableNouns = map[string]string{
	"court_list_publish_status": "court list status",
	"jobs":                      "publish job",
}

// MapDBError maps database errors to AppErrors:
//
//	context deadline / cancel  -> timeout / canceled
//	no rows                    -> not_found
//	unique violation           -> conflict
//	check / not-null violation -> validation
//
// Anything else passes through unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	noun := nounFor(pgErr.TableName)
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		appErr := Wrap(pgErr, ErrCodeConflict, "A "+noun+" with this key already exists.")
		appErr.Field = uniqueField(pgErr)
		return appErr
	case pgerrcode.CheckViolation:
		appErr := Wrap(pgErr, ErrCodeValidation, "Invalid value for "+noun+".")
		appErr.Field = fieldFromConstraint(pgErr.ConstraintName, pgErr.TableName)
		return appErr
	case pgerrcode.NotNullViolation:
		appErr := Wrap(pgErr, ErrCodeValidation, "A required "+noun+" field is missing.")
		appErr.Field = pgErr.ColumnName
		return appErr
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return Wrap(pgErr, ErrCodeConflict, "Concurrent update detected. Please retry.")
	default:
		return Wrap(pgErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func nounFor(table string) string {
	if noun, ok := tableNouns[table]; ok {
		return noun
	}
	if table == "" {
		return "record"
	}
	return strings.ReplaceAll(table, "_", " ")
}

// uniqueField prefers column metadata, then the Detail key list, then the constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName, pgErr.TableName)
}

// fieldFromConstraint strips the table prefix and a known suffix from a constraint name,
// e.g. "court_list_publish_status_publish_status_check" -> "publish_status".
func fieldFromConstraint(constraint, table string) string {
	name := constraint
	for _, prefix := range []string{"uq_", "ck_"} {
		name = strings.TrimPrefix(name, prefix)
	}
	for _, suffix := range []string{"_pkey", "_key", "_check"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if table == "" {
		return name
	}
	if name == table {
		return ""
	}
	return strings.TrimPrefix(name, table+"_")
}
