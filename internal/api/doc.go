// Package api hosts the HTTP server, middleware, and JSON handlers for the
// marketing site. Notable routes:
//   - POST /api/contacts and /api/subscribe for form ingestion.
//   - GET /api/health for storage probes, GET /healthz for liveness.
//   - POST /api/revalidate for CMS webhook cache invalidation.
//   - GET /api/sanity/preview and the exit-preview routes for draft mode.
//   - POST|GET /api/vitals for client web vitals.
//   - GET /metrics for Prometheus scraping.
package api
