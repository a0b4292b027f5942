package usage

import "errors"

// ErrStorageUnavailable indicates the ledger store could not be reached.
// Admission fails closed on it: safety over availability.
var ErrStorageUnavailable = errors.New("usage storage unavailable")
