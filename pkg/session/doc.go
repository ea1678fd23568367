// Package session manages the authenticated captive portal session of one
// device.
//
// A Manager redeems ticket credentials bound to a device fingerprint,
// persists the resulting tokens through a Store and ends the session as soon
// as the portal or the subscription stops granting access.
//
// # Stores
//
// Store implementations write and clear access token, refresh token, session
// id and user as one unit:
//
//   - MemoryStore keeps them in process memory.
//   - FileStore writes a JSON document through a temp file and rename,
//     optionally sealed with AES-GCM (see pkg/secrets).
//   - RedisStore keeps one hash and replaces it inside MULTI/EXEC.
//
// NewStore builds one from a StoreConfig loaded from SESSION_* variables.
//
// # Usage
//
//	mgr := session.New(
//	    session.WithClient(portalapi.New(baseURL)),
//	    session.WithStore(session.NewFileStore(path)),
//	    session.WithLogger(log),
//	)
//
//	sess, err := mgr.Login(ctx, "alice", "p1", fp)
//	switch {
//	case errors.Is(err, portalerr.DeviceConflict):
//	    // this device already redeemed another ticket
//	case errors.Is(err, portalerr.Auth):
//	    // wrong credentials or no active subscription
//	}
//
//	st, err := mgr.CheckStatus(ctx, sess.ID, sess.AccessToken)
//
// CheckStatus forces a Logout whenever the portal reports the session
// inactive, the subscription has ended, or (with LogoutOnCheckError) the
// check itself fails. A cancelled check ends nothing. Concurrent checks of one
// session share one request that no single caller can cancel.
//
// Logout notifies the portal in the background and clears the store in every
// case. A forced logout clears the store only while it still holds the ended
// session. Start and Stop run the status check periodically.
package session
