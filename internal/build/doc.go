// Package build turns configured bundles into pipeline runs.
//
// A Builder holds an exclusive advisory lock on <manifest>.lock for the whole
// run, opens the manifest once, and executes each bundle's stages in order.
// Every run is tagged with a fresh run id that flows into the log records of
// each stage.
package build
