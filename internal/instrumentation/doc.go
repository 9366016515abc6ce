// Package instrumentation provides OpenTelemetry metrics for gmailkit.
//
// The Provider owns the meter provider and exporter (Prometheus or
// stdout); Metrics is the nil-safe recorder handed to the credential
// manager and the Gmail client. A disabled provider hands out a no-op
// recorder so call sites never branch on whether metrics are on.
package instrumentation
