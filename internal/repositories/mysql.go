package repositories

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const mysqlDupEntry = 1062

// IsDuplicateKey reports whether err is a MySQL unique-key violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}
