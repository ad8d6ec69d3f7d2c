package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the services react to.
const (
	codeUndefinedTable    = "42P01"
	codeUndefinedFunction = "42883"
	codeInsufficientPriv  = "42501"
	codeUniqueViolation   = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func messageHas(err error, subs ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range subs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsUndefinedTable reports a missing relation. The message check covers drivers without SQLSTATE codes.
func IsUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == codeUndefinedTable {
		return true
	}
	return messageHas(err, "no such table") || (messageHas(err, "relation") && messageHas(err, "does not exist"))
}

func IsUndefinedFunction(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == codeUndefinedFunction {
		return true
	}
	return messageHas(err, "function") && messageHas(err, "does not exist")
}

// IsPermissionDenied covers row-level security rejections as well as grants.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == codeInsufficientPriv {
		return true
	}
	return messageHas(err, "permission denied", "row-level security policy")
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == codeUniqueViolation {
		return true
	}
	return messageHas(err, "duplicate", "unique constraint")
}

// IsNotProvisioned reports schema objects missing from the store.
func IsNotProvisioned(err error) bool {
	return IsUndefinedTable(err) || IsUndefinedFunction(err)
}

// IsSoftFailure reports errors that list and aggregate reads degrade to empty results on.
func IsSoftFailure(err error) bool {
	return IsNotProvisioned(err) || IsPermissionDenied(err)
}
