package errors

import "errors"

var (
	ErrMissingConfigKey      = errors.New("required configuration key is missing")
	ErrUnknownMode           = errors.New("unknown feed mode")
	ErrUnexpectedStatus      = errors.New("unexpected HTTP status")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrAuthentication        = errors.New("publisher authentication failed")
	ErrPublishFailed         = errors.New("publish failed")
	ErrPublisherDisabled     = errors.New("publisher disabled")
	ErrUnauthorized          = errors.New("unauthorized user")
)
