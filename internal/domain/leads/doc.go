// Package leads defines the core entities of the intent data pipeline:
// intent events keyed by hashed emails (MD5s), the PII attached to them,
// and the contracts implemented by validators, deliverers, analyzers and
// processors.
package leads
