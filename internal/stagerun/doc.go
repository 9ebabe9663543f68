// Package stagerun runs the downstream pipeline stages. Each stage is a
// Worker: a single-inbox actor that receives a leased payload, invokes
// an injected Processor (the scraping, analysis, or embedding
// collaborator), records the result with the state tracker, and hands
// the gallery to the next stage's inbox.
package stagerun
