package store

import (
	"errors"

	"github.com/256dpi/lungo"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrConnection wraps failures to reach the database at connect time.
var ErrConnection = errors.New("store: connection failed")

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return err != nil && (mongo.IsDuplicateKeyError(err) || lungo.IsUniquenessError(err))
}

// IsConnectionError reports whether err means the database could not be
// reached or the client is no longer usable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, lungo.ErrEngineClosed) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err)
}
