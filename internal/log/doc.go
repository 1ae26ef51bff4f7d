// Package log provides slog handlers for the monitor. Crawled dark-web
// pages routinely contain credentials, wallet seeds, and session tokens;
// the handlers here mask such material before it reaches any log sink.
package log
