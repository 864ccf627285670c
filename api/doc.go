// Package api is a typed client for the mempool.space REST API.
//
// Files:
//   transport.go  - Transport capability (Method, Transport, TransportFunc)
//   client.go     - Client struct, NewClient, URL joining and payload decoding
//   endpoints.go  - Endpoint descriptors and path template resolution
//   errors.go     - PathError, TransportError, DecodeError and sentinels
//   config.go     - Networks and their default base URLs
//   hashes.go     - Strict length checks for hashes inside JSON payloads
//   types.go      - Response records (RecommendedFees, TxInfo, BlockSummary, etc.)
//   fees.go       - Fee and mempool endpoints
//   blocks.go     - Block endpoints
//   tx.go         - Transaction endpoints and broadcast
//   address.go    - Address endpoints
//
// The client never talks to the network itself. Plug in any Transport, for
// example the net/http based one from the transport package:
//
//   client, err := api.NewClient("https://mempool.space/api", transport.NewHTTP())
//   fees, err := client.GetRecommendedFees(ctx)
package api
