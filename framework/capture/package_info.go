// Package capture redirects the console output of test bodies and hooks into per-phase
// buffers. Redirection is expressed as a stack of scopes on a Console rather than as
// replaced global functions, so that scopes can nest under recursive group execution and
// are always unwound in reverse order.
package capture
