package mongostore

import "errors"

var (
	ErrMongo = errors.New("mongostore.command_failed")
	ErrIndex = errors.New("mongostore.index_failed")
)
