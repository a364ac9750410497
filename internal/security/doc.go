// Package security derives a read-only summary of an engine's security
// posture from its configuration.
package security
