/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

// SQLState returns the standard SQLSTATE of the class, or "" when there is
// none.
func (e SQLError) SQLState() string {
	switch e {
	case NoRowsErr:
		return "02000"
	case NoColumnErr:
		return "42703"
	case NoIndexErr:
		return "42704"
	case NoTableErr:
		return "42P01"
	case ExistTableErr, ExistIndexErr:
		return "42P07"
	case ExistColumnErr:
		return "42701"
	case DuplicateKeyErr:
		return "23505"
	case NotNullViolationErr:
		return "23502"
	case ForeignKeyViolationErr:
		return "23503"
	case CheckConstraintViolationErr:
		return "23514"
	case DataTruncatedErr:
		return "22001"
	case InvalidTypeCastErr:
		return "42804"
	default:
		return ""
	}
}

var mysqlClasses = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1050: ExistTableErr,
	1146: NoTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

var pqClasses = map[string]SQLError{
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
}

// messagePatterns classify drivers without typed errors, sqlite included.
// Every pattern of an entry must occur in the lower-cased message.
var messagePatterns = []struct {
	class    SQLError
	patterns []string
}{
	{NoColumnErr, []string{"sqlstate 42703"}},
	{NoColumnErr, []string{"undefined column"}},
	{NoColumnErr, []string{"no such column"}},
	{NoIndexErr, []string{"sqlstate 42704"}},
	{NoIndexErr, []string{"no such index"}},
	{NoIndexErr, []string{"does not exist", "index"}},
	{NoTableErr, []string{"sqlstate 42p01"}},
	{NoTableErr, []string{"undefined table"}},
	{NoTableErr, []string{"no such table"}},
	{ExistIndexErr, []string{"already exists", "index"}},
	{ExistTableErr, []string{"already exists", "table"}},
	{ExistTableErr, []string{"relation", "already exists"}},
	{DuplicateKeyErr, []string{"duplicate key value"}},
	{DuplicateKeyErr, []string{"unique constraint failed"}},
	{DuplicateKeyErr, []string{"sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint"}},
	{NotNullViolationErr, []string{"not null constraint failed"}},
	{NotNullViolationErr, []string{"sqlstate 23502"}},
	{ForeignKeyViolationErr, []string{"foreign key violation"}},
	{ForeignKeyViolationErr, []string{"foreign key constraint failed"}},
	{ForeignKeyViolationErr, []string{"sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint"}},
	{CheckConstraintViolationErr, []string{"sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation"}},
	{DataTruncatedErr, []string{"data truncated"}},
	{DataTruncatedErr, []string{"sqlstate 22001"}},
	{InvalidTypeCastErr, []string{"datatype mismatch"}},
	{InvalidTypeCastErr, []string{"sqlstate 42804"}},
}

// codedError matches driver errors exposing a numeric result code, such as
// the sqlite errors of modernc.org/sqlite.
type codedError interface {
	error
	Code() int
}

// IsSqlError reports whether err was raised by the database and, if so, its
// class. Typed mysql, postgres and sqlite errors always count as database
// errors; messages refine the class of the others.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if class, ok := mysqlClasses[mysqlErr.Number]; ok {
			return true, class
		}
		return true, UnknownErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if class, ok := pqClasses[string(pqErr.Code)]; ok {
			return true, class
		}
		return true, UnknownErr
	}
	s := strings.ToLower(err.Error())
	for _, mp := range messagePatterns {
		if containsAll(s, mp.patterns) {
			return true, mp.class
		}
	}
	var coded codedError
	if errors.As(err, &coded) {
		return true, UnknownErr
	}
	return false, UnknownErr
}

// FaultCode returns the code used to look up a message for a database
// fault: the driver's SQLSTATE when it reports one, the mysql error number
// otherwise, the SQLSTATE of the class recognised from the message, or the
// sqlite result code.
func FaultCode(err error) (string, bool) {
	is, class := IsSqlError(err)
	if !is {
		return "", false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if state := strings.Trim(string(mysqlErr.SQLState[:]), "\x00"); state != "" {
			return state, true
		}
		return strconv.Itoa(int(mysqlErr.Number)), true
	}
	if state := class.SQLState(); state != "" {
		return state, true
	}
	var coded codedError
	if errors.As(err, &coded) {
		return strconv.Itoa(coded.Code()), true
	}
	return "HY000", true
}

func containsAll(s string, patterns []string) bool {
	for _, p := range patterns {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
