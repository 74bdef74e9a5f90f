// Package converge drives a desired-state convergence run. It loads
// provider credentials (optionally from a .env file), loads the YAML tree
// description, plans the directory and git operations, and applies them,
// undoing the applied operations when a later one fails and rollback is
// requested.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters for the run.
package converge
