package aid

import "errors"

var (
	ErrRequestNotFound = errors.New("aid request not found")
	ErrFamilyNotFound  = errors.New("family not found")
)
