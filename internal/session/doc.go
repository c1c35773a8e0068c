// Package session persists viewing sessions across restarts and
// reassembles them at startup.
//
// The store keeps one record per source in a BoltDB file: the criteria
// signature the playlist was built under, the ordered id list, and the
// current index. The resumer prefers a session still live on the remote
// server, then falls back to the local snapshot validated against
// current reality; any failure degrades silently to a fresh list-fetch.
package session
