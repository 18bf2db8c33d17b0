// Package provider defines the vendor-agnostic contract for leaf primitives
// that call out to completion services.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Lift any Provider into a flow via Primitive, so completions compose
//     with retries, timeouts, caches and routing like any other primitive
//   - Facilitate lightweight mocking for tests (MockProvider)
//
// Vendors (e.g. OpenAI, Anthropic) implement the Provider interface from this
// package so flows remain decoupled from vendor SDKs.
package provider
