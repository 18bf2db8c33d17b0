// Package testutil contains helper primitives used across tests to reduce
// boilerplate when exercising combinators and decorators (counting calls,
// scripted failures, toggled outages). These helpers are intentionally
// minimal and avoid adding third-party dependencies. They are not intended
// for production usage.
package testutil
