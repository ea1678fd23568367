package session

import "errors"

var (
	// ErrNoCredentials is returned by Store.Get when nothing is stored.
	ErrNoCredentials = errors.New("session.no_credentials")

	// ErrInvalidCredentials is returned by Store.SetAll when the access token or session id is missing.
	ErrInvalidCredentials = errors.New("session.invalid_credentials")

	// ErrCorruptCredentials indicates stored credentials could not be decoded.
	ErrCorruptCredentials = errors.New("session.corrupt_credentials")

	// ErrStore wraps failures of the underlying Store.
	ErrStore = errors.New("session.store_failed")

	// ErrNoSession indicates there is no stored session to restore.
	ErrNoSession = errors.New("session.not_found")

	// ErrSessionInactive indicates the server or the subscription no longer grants access.
	ErrSessionInactive = errors.New("session.inactive")

	// ErrMonitorRunning is returned by Start when the status monitor already runs.
	ErrMonitorRunning = errors.New("session.monitor_running")

	// ErrMonitorStopped is returned by Stop when the status monitor is not running.
	ErrMonitorStopped = errors.New("session.monitor_not_running")

	// ErrUnknownStoreDriver is returned by NewStore for an unsupported driver.
	ErrUnknownStoreDriver = errors.New("session.unknown_store_driver")
)
