// Package services implements the driving port interfaces.
// Services contain the core business logic: classification, redaction,
// consistency verification, author scanning and pipeline orchestration.
// All decision logic is synchronous and CPU-only; suspension happens only
// at the store boundary through the driven ports.
package services
