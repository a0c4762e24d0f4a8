// Package component defines lifecycle-managed infrastructure pieces, such as
// the database connection, and a Registry that starts them in registration
// order and stops them in reverse.
package component
