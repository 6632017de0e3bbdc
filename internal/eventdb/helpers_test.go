package eventdb

import "errors"

var errBusy = errors.New("database is locked (5) (SQLITE_BUSY)")
