// Package config loads immutable process configuration from TASKDECK_*
// environment variables. Configuration is constructed once at startup and
// never mutated afterwards; the signing secret in particular is loaded here
// and handed to the credential issuer.
package config
