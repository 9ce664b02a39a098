// Package accounts has services for interacting with account and session
// persistence, decoupled from the API that accesses it.
package accounts

import (
	"github.com/dekarrin/earley/server/dao"
)

// Service is a service for interacting with and modifying user accounts and
// sessions. It performs the actions requested and makes calls to server
// persistence to preserve state.
//
// The zero-value of Service is not ready to be used; assign a valid DAO store
// to DB before attempting to use it.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store
}
