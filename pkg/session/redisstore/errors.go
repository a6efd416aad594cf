package redisstore

import "errors"

var (
	ErrRedis  = errors.New("redisstore.command_failed")
	ErrEncode = errors.New("redisstore.encode_failed")
	ErrDecode = errors.New("redisstore.decode_failed")
)
