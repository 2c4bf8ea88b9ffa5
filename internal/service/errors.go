package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRegistryClosed  = errors.New("session registry is closed")
)
