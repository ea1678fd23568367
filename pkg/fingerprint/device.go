package fingerprint

import "time"

// Device is a fingerprinted client as known to the portal.
// Trusted is decided by the server and defaults to false.
type Device struct {
	Fingerprint string    `json:"fingerprint"`
	Trusted     bool      `json:"trusted"`
	LastSeen    time.Time `json:"last_seen"`
}

// NewDevice creates an untrusted device record seen at now.
func NewDevice(fp string, now time.Time) Device {
	return Device{Fingerprint: fp, LastSeen: now}
}

// Touch refreshes LastSeen. Earlier timestamps are ignored.
func (d *Device) Touch(now time.Time) {
	if now.After(d.LastSeen) {
		d.LastSeen = now
	}
}
