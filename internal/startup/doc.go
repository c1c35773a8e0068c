// Package startup handles application initialization: environment-driven
// configuration, build information, and structured startup/shutdown
// logging.
package startup
