// Package types defines the records that flow through the ETL: events read
// from the event store and the feature rows written to the dataset.
package types
