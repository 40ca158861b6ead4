// Package siphon provides a generic, extensible HTTP-polling source
// connector toolkit. It repeatedly issues HTTP requests against configured
// endpoints, converts each successful response into structured records, and
// advances a persisted offset so polling resumes where it left off.
//
// # Architecture
//
// The toolkit is organized around one contract, core.PollableSource: a host
// ingestion framework enumerates partitions (logical polling targets) once,
// obtains an initial offset per partition, and then drives Poll on its own
// schedule. Each poll cycle runs strictly sequentially:
//
//	build request -> execute -> validate -> extract -> assemble -> update offset
//
// The single required extension point is core.DataExtractor, which converts
// a validated response into an ordered sequence of opaque items. Request
// building and offset computation are equally pluggable, with base
// implementations that poll the partition URL verbatim and keep the offset
// unchanged.
//
// Failures abort the whole cycle: partial extraction results are discarded
// and the offset stays untouched, so the next poll retries from the same
// position. Every record carries the provenance header "http.source" with
// the URL it was polled from.
//
// # Quick start
//
// Poll a JSON endpoint into JSON-lines on stdout:
//
//	siphon run --config siphon.yaml --once
//
// with a configuration such as:
//
//	name: example
//	server_uri: http://api.example.com
//	endpoint: /items
//	auth:
//	  type: basic
//	  username: bot
//	  password: ${API_PASSWORD}
//
// Concrete connectors embed sources/http.Source and plug their own
// extractor:
//
//	src := httpsource.NewSource(httpsource.WithExtractor(myExtractor))
package siphon
