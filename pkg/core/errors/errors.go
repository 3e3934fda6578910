package errors

import "errors"

// Error kinds surfaced by the retrieval core. Callers match them with errors.Is;
// the concrete cause is always wrapped alongside.
var (
	ErrIO            = errors.New("subgrabber: file or cache I/O failed")
	ErrTransport     = errors.New("subgrabber: transport failure")
	ErrProtocolParse = errors.New("subgrabber: unexpected response from service")
	ErrAuth          = errors.New("subgrabber: login failed")
	ErrDecompress    = errors.New("subgrabber: subtitle payload could not be decompressed")

	// ErrSearchExhausted means the initial search and the single retry with a
	// fresh token both came back without a download link.
	ErrSearchExhausted = errors.New("subgrabber: no subtitle found after token refresh")
)
