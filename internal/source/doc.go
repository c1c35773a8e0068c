// Package source abstracts where playlist items come from: a remote
// gallery server, a local photo tree, or a generated demo set. Sources
// produce ordered id lists and retrieve raw image bytes; the local
// source additionally sorts and filters its own scan results and can be
// watched for filesystem changes.
package source
