// Package infra holds the adapters behind the planning core: the SQLite
// store, MQTT and Kafka publishers, metrics sinks, Sentry, tracing and the
// zerolog logger. Nothing under core imports these packages.
package infra
