package instrument

import "errors"

var ErrRegister = errors.New("instrument.register_failed")
