// Package http implements the HTTP handlers of the billing web service.
// Handlers stay thin: they parse the request, call a service and render the
// response. All business rules live in the services package.
//
// # Routes
//
// The billing API is mounted under /api/billing:
//
//	POST   /sessions                    multipart upload, field "files"
//	GET    /sessions/{id}/links?kind=   links with their observed ranges
//	POST   /sessions/{id}/percentiles   {kind, selections} -> percentiles
//	POST   /sessions/{id}/export        {kind, selections, file_name} -> xlsx
//	DELETE /sessions/{id}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/billing/missing-data",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "Please upload the correct files.",
//	    "instance": "/api/billing/sessions/.../percentiles"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of the billing
// service.
package http
