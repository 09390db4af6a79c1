// Package report provides lookup output in several formats.
//
// This package contains writers for finished lookups:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Markdown output for documentation and sharing
//   - JSONWriter: Structured JSON output for tool integration
//
// StreamRenderer prints panels one at a time while a lookup is still
// running, in the same text layout as SimpleWriter.
package report
