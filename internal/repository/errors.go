// Package repository implements plain-SQL persistence for users, metadata,
// roles and refresh tokens. Sentinel errors defined here let the service
// layer distinguish duplicate-key failures from other storage errors
// without inspecting driver messages itself.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrLoginExists is returned when an insert collides with the unique key
// on users.user_login.
var ErrLoginExists = errors.New("login already exists")

// ErrEmailExists is returned when an insert or update collides with the
// unique key on users.user_email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports whether err is a MySQL duplicate-entry error (1062)
// on the named unique key. An empty keyName matches any duplicate error.
func isDuplicate(err error, keyName string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	return keyName == "" || strings.Contains(me.Message, keyName)
}
