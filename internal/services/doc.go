// Package services implements the business logic behind the billing API
// and CLI. Handlers stay thin: they decode requests, call a service and
// render the result.
//
// # Billing workflow
//
// An operator uploads GGSN and IX workbooks once and gets a session id.
// Every later call names the session and a source kind:
//
//	summary, err := svc.Upload(ctx, uploads)
//	links, err := svc.Links(ctx, summary.SessionID, domain.SourceGGSN)
//	result, err := svc.Compute(ctx, summary.SessionID, domain.SourceGGSN, specs)
//	name, err := svc.Export(ctx, summary.SessionID, domain.SourceGGSN, specs, "March", w)
//
// Computations are pure; the same session and selections always produce the
// same result, so the web UI recomputes on every change instead of keeping
// state.
//
// # Error Handling
//
// Services return sentinel errors that handlers map to problem documents:
//
//   - ErrMissingData when the requested kind was not uploaded
//   - ErrNoUsableFiles (as *NoUsableFilesError) when an upload loaded nothing
//   - session.ErrSessionNotFound for unknown or expired sessions
//   - billing.ErrInvalidWindow for selections that cannot be compared
//
// # Testing
//
// Services are tested with testify mocks for their loader and store
// dependencies.
package services
