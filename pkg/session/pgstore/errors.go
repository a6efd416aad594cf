package pgstore

import "errors"

var (
	ErrQuery  = errors.New("pgstore.query_failed")
	ErrEncode = errors.New("pgstore.encode_failed")
	ErrDecode = errors.New("pgstore.decode_failed")
)
