// Package services holds the error taxonomy shared by the pipeline's
// external collaborators (marketplace scrapers, the analysis provider,
// the embedding provider) and by the API layers that surface their
// failures.
package services
