// Package activity sends human-readable notifications of user and system
// activity to a chat webhook.
//
// # Delivery
//
// Events are rendered into a webhook Message with one embed and queued for a
// background worker. Delivery is best-effort and at-most-once: a full queue
// drops the event, a failed POST is logged and forgotten, and no caller ever
// observes an error. Without an endpoint the logger performs no network I/O.
//
//	logger := activity.NewLogger(&activity.Config{URL: webhookURL})
//	defer logger.Close()
//
//	logger.LogLogin("alice", true, activity.FromRequest(r))
//
// # Rendering
//
// Every embed starts with the "IP" and "Device" fields, using "Unknown" when
// the request context is absent. Field values are bounded by the webhook's
// embed limits (MaxFieldValueLength, MaxFields) and empty values render as
// "N/A". Unknown kinds render with a neutral gray style.
//
// # Endpoint
//
// The endpoint embeds a secret token. It is never logged and never appears
// in returned errors. SetEndpoint swaps it at runtime, e.g. on config reload.
package activity
