// Package logging configures the process-wide structured logger.
//
// Components log through log/slog, each deriving a logger with
//
//	slog.Default().With("component", "retention")
//
// Setup builds a JSON or text handler at the configured level and installs
// it as the default. With Redact enabled a ReplaceAttr hook masks webhook
// tokens, bearer tokens and URL credentials before they reach the output.
//
// Scheduler runs carry a run ID, a trigger and an actor in their context;
// FromContext adds whichever are present to a logger.
package logging
