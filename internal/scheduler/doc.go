// Package scheduler maintains one recurring cron task per registered
// gallery. On each fire it attempts to take the gallery's payload from
// the state tracker and dispatch it into search scraping; a gallery that
// is mid-pipeline or at the wrong stage is skipped for that tick, so a
// slow run self-throttles instead of accumulating backlog.
//
// The scheduler owns no gallery payloads itself, only the cron schedule
// and the registration criteria needed to restart a completed run.
package scheduler
