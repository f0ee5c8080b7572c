package models

import "errors"

// ErrDisabled is returned when an optional integration (sheets, mongo, S3,
// WhatsApp) is not configured.
var ErrDisabled = errors.New("integration disabled")
