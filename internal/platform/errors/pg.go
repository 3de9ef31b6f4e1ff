package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode

import (
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common SQLSTATE codes the catalog lookup cares about
const (
	pgErrUndefinedTable       = "42P01"
	pgErrUndefinedColumn      = "42703"
	pgErrInsufficientPrivs    = "42501"
	pgErrInvalidCatalogName   = "3D000"
	pgErrCannotConnectNow     = "57P03" // i.e. startup in progress
	pgErrQueryCanceled        = "57014"
	pgErrInvalidAuthorization = "28000"
	pgErrInvalidPassword      = "28P01"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsUndefinedTable reports whether the catalog table does not exist
func IsUndefinedTable(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// IsUndefinedColumn reports whether the catalog column does not exist
func IsUndefinedColumn(err error) bool { return IsSQLState(err, pgErrUndefinedColumn) }

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}

	switch pgErr.Code {
	case pgErrUndefinedTable, pgErrUndefinedColumn, pgErrInvalidCatalogName:
		// misconfigured CORE_CATALOG_TABLE / COLUMN or database name
		return ErrorCodeInvalidArgument, true

	case pgErrInsufficientPrivs, pgErrInvalidAuthorization, pgErrInvalidPassword:
		return ErrorCodeCatalog, true

	case pgErrQueryCanceled:
		return ErrorCodeCanceled, true

	case pgErrCannotConnectNow:
		return ErrorCodeDB, true
	}

	// Default: still a DB error
	return ErrorCodeDB, true
}

// FromPG wraps a pg error with a mapped ErrorCode and message.
// Non-pg errors become Catalog errors. If err is nil, returns nil
func FromPG(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Keep(err, ErrorCodeCatalog, msg)
}

// FromPGf is the formatted variant of FromPG
func FromPGf(err error, format string, a ...any) error {
	return FromPG(err, fmt.Sprintf(format, a...))
}
