// Package logging provides leveled logging with environment-based
// configuration. Set LOG_LEVEL to debug/info/warn/error, or DEBUG=1
// as a shortcut for debug level.
package logging
