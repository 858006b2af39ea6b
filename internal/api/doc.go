// Package api contains the HTTP handlers, request/response models, and error
// mapping for the registrar service's REST interface.
package api
