package domain

import "errors"

var (
	ErrSessionBusy      = errors.New("session busy")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrInvalidTicker    = errors.New("invalid ticker")
	ErrClientIDReused   = errors.New("client id already used")
	ErrInvalidClientID  = errors.New("invalid client id")
	ErrMalformedPlan    = errors.New("malformed dispatch plan")
	ErrUnknownAgent     = errors.New("unknown agent")
	ErrRateLimited      = errors.New("rate limited")
	ErrDataNotAvailable = errors.New("data not available")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrConnectionClosed = errors.New("connection closed")
)
