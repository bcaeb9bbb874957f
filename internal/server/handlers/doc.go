// Package handlers contains the HTTP handlers of the linkmon daemon.
//
// This package provides handlers for:
//   - The JSON-RPC 2.0 poll API (links, status, packages, publish bookkeeping)
//   - Health and readiness endpoints (monitoring)
//   - The HTML/JSON status page and rendered operator documentation
//   - Shared response helper functions
//
// All handlers follow a consistent pattern for error handling and response formatting,
// using the errors package for structured error handling and the
// server/responses package for standardized wire types.
package handlers
