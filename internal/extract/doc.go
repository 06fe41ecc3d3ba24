// Package extract turns files on disk into plain text for pattern matching.
//
// The media type is resolved from the file name only. A Dispatcher maps each
// media type to an Extractor; unknown and unsupported types, missing files,
// corrupt containers and parser panics all come back as an Outcome whose Text
// describes the problem. Extract never returns an error and never panics, so
// one bad file cannot abort a scan over its siblings.
package extract
