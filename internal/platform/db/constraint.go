package db

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Violation int

const (
	ViolationNone Violation = iota
	ViolationUnique
	ViolationCheck
	ViolationForeignKey
)

func (v Violation) String() string {
	switch v {
	case ViolationUnique:
		return "unique"
	case ViolationCheck:
		return "check"
	case ViolationForeignKey:
		return "foreign key"
	default:
		return "none"
	}
}

// MySQL server error numbers.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlCheckViolated   = 3819
)

func Classify(err error) Violation {
	if err == nil {
		return ViolationNone
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return ViolationUnique
		case mysqlCheckViolated:
			return ViolationCheck
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return ViolationForeignKey
		}
		return ViolationNone
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ViolationUnique
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return ViolationCheck
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ViolationForeignKey
		}
	}
	return ViolationNone
}

func IsUniqueViolation(err error) bool { return Classify(err) == ViolationUnique }
func IsCheckViolation(err error) bool  { return Classify(err) == ViolationCheck }
