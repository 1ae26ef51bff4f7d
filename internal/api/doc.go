// Package api exposes the HTTP control surface: health and metrics
// endpoints, crawl run control, item search, corpus stats, and the live
// feed as server-sent events.
package api
