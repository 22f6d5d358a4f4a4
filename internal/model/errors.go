package model

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPrivateProfile   = errors.New("profile is private")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPrayer    = errors.New("invalid prayer")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrFeatureDisabled  = errors.New("feature disabled")
)
