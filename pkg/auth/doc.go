// Package auth implements the credential service: stateless signed bearer
// tokens carrying a principal's identity claims, plus the one-way password
// hashing primitive used at login and registration.
//
// Tokens are HS256 JWTs with a fixed 24 hour validity window. There is no
// server-side session store and therefore no revocation; logout is a
// client-side token drop.
package auth
