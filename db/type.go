package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrDuplicateEntryCode = 1062

	// ErrDuplicateJob signals a job id collision on insert.
	ErrDuplicateJob = errors.New("job id already exists")
)

func MysqlErrCode(err error) int {
	mysqlErr, ok := err.(*mysql.MySQLError)
	if !ok {
		return 0
	}
	return int(mysqlErr.Number)
}
