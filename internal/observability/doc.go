// Package observability provides structured logging and Prometheus
// metrics for the research agent. Loggers are zerolog-based and carry
// request correlation IDs through context; metrics cover HTTP traffic,
// workflow stages, and source aggregation.
package observability
