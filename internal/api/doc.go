// Package api contains the HTTP handlers, request/response models and the
// error-to-status mapping for the REST surface. Handlers stay thin: they
// decode and validate input, call a service, and shape the response; error
// sanitization keeps internal details out of client payloads.
package api
