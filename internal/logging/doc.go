// Package logging provides a simple leveled logging interface for the
// catalog service and its CLI.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true. Command line tools may override it with SetLevel and send
// output elsewhere with SetOutput. Access lines bypass the level filter.
package logging
