package victim

import "errors"

var (
	ErrVictimNotFound = errors.New("victim not found")
	ErrMatriculeTaken = errors.New("matricule already in use")

	// ErrCertificateNotFound covers keys no live record holds.
	ErrCertificateNotFound = errors.New("attachment not found")
)
