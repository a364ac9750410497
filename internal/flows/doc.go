// Package flows holds the token-level state machines behind the engine's
// refresh and access validation operations.
//
// Each Run function takes a typed dependency struct and returns a result with a
// classified failure kind. Flows hold no state and never import the root
// package; the user record type is a type parameter.
package flows
