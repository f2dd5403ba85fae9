// Package app is the process boundary of a crawl: it runs an assembled
// engine under the signal policy and turns the outcome into an exit
// status.
//
// The exit vocabulary is wget-compatible (0 success, 1 generic, 3 file
// I/O, 4 network, 5 TLS, 6 authentication, 7 protocol, 8 server; 2 is
// reserved for the command-line layer). Classification walks an ordered
// rule table, first match wins, and statuses from different sources
// merge with the numerically smallest nonzero code winning. The
// exit-status hook gets final say over the computed value.
//
// The signal policy is: first interrupt, graceful stop; second
// interrupt or a terminate signal, forceful cancel. Platforms without
// signal support get a warning and no handlers.
package app
