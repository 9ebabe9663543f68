// Package gallery holds the domain types shared across the scraping
// pipeline: gallery and item identifiers, marketplace enumeration,
// validated cron schedules, and the opaque criteria blobs that the
// pipeline threads through unchanged.
package gallery
