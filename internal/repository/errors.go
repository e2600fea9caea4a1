package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQLエラーコード。
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// IsUniqueViolation はerrが一意制約違反かを判定する。
// constraintが空でない場合は制約名の一致も要求する。
// チェック後INSERTの競合でストレージ層が拒否したケースを、
// サービス層が競合エラーに変換するために使う。
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsCheckViolation はerrがCHECK制約違反かを判定する。
func IsCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqCheckViolation
}
