// Package main provides the entry point for the wikiscope CLI.
//
// wikiscope looks up a topic on Wikipedia and aggregates the article
// summary, page metadata, the linked Wikidata item, recent edit history and
// matching Wikimedia Commons images into one report.
//
// Usage:
//
//	wikiscope search <query>
//	wikiscope suggest <prefix>
//	wikiscope serve
//
// See --help for all available options.
package main

// main is the entry point for wikiscope.
func main() {
	Execute()
}
