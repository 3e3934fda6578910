package constants

// DefaultEndpoint is the OpenSubtitles XML-RPC endpoint.
const DefaultEndpoint = "https://api.opensubtitles.org/xml-rpc"

// DefaultUserAgent is sent both as the HTTP User-Agent and as the LogIn user agent argument.
const DefaultUserAgent = "TemporaryUserAgent"

// DefaultLanguage is the sublanguageid used for searches.
const DefaultLanguage = "eng"

// AppName scopes the cache directory.
const AppName = "subgrabber"

// TokenFileName is the cache file holding the raw token.
const TokenFileName = "token"

// SubtitleExtension is appended to the media base name.
const SubtitleExtension = "srt"

// DefaultLoginLanguage is the interface language passed to LogIn.
const DefaultLoginLanguage = "en"
