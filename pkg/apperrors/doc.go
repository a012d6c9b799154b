// Package apperrors defines the error taxonomy shared by all taskdeck
// services and its mapping onto HTTP status codes.
package apperrors
