package opensubtitles

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/angelospk/subgrabber/internal/constants"
	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
	"github.com/angelospk/subgrabber/pkg/core/fileops"
	"github.com/klauspost/compress/gzip"
	xmlrpc "github.com/kolo/xmlrpc"
	log "github.com/sirupsen/logrus"
)

// Config holds the deployment constants for the XML-RPC service.
// Empty fields fall back to the defaults in internal/constants.
type Config struct {
	Endpoint  string
	UserAgent string
	Language  string // sublanguageid used for searches, e.g. "eng"
	// Username and Password are optional; empty values log in anonymously.
	Username string
	Password string
}

// XmlRpcClient talks to the OpenSubtitles XML-RPC API. It only understands the
// handful of response members the retrieval flow needs.
type XmlRpcClient struct {
	httpClient *http.Client
	config     Config
	logger     *log.Logger
}

// NewXmlRpcClient creates a new XML-RPC client. The same http.Client is reused
// for every call made through it.
func NewXmlRpcClient(config Config, httpClient *http.Client, logger *log.Logger) (*XmlRpcClient, error) {
	if config.Endpoint == "" {
		config.Endpoint = constants.DefaultEndpoint
	}
	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}
	if config.Language == "" {
		config.Language = constants.DefaultLanguage
	}
	if _, err := url.ParseRequestURI(config.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid XML-RPC endpoint %q: %w", config.Endpoint, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &XmlRpcClient{
		httpClient: httpClient,
		config:     config,
		logger:     logger,
	}, nil
}

// searchCriteria is the single struct sent inside the SearchSubtitles query array.
// All values travel as strings, moviebytesize included.
type searchCriteria struct {
	SubLanguageID string `xmlrpc:"sublanguageid"`
	MovieHash     string `xmlrpc:"moviehash"`
	MovieByteSize string `xmlrpc:"moviebytesize"`
}

// Login requests a fresh session token.
func (c *XmlRpcClient) Login(ctx context.Context) (string, error) {
	body, err := c.call(ctx, "LogIn", c.config.Username, c.config.Password, constants.DefaultLoginLanguage, c.config.UserAgent)
	if err != nil {
		return "", err
	}

	token, ok := extractMember(body, "token")
	if !ok || token == "" {
		if status, ok := extractMember(body, "status"); ok {
			return "", fmt.Errorf("%w: no token in LogIn response (status %q)", coreerrors.ErrAuth, status)
		}
		return "", fmt.Errorf("%w: no token in LogIn response", coreerrors.ErrAuth)
	}

	c.logger.Debug("XML-RPC login successful")
	return token, nil
}

// SearchSubtitles looks up subtitles for a fingerprint and returns the first
// SubDownloadLink in the response. The service orders results best match first.
//
// found is false whenever no link is present, whatever the reason: an expired
// token, zero matches and a server-side error page all look the same here.
func (c *XmlRpcClient) SearchSubtitles(ctx context.Context, token string, fp fileops.Fingerprint) (link string, found bool, err error) {
	criteria := []searchCriteria{{
		SubLanguageID: c.config.Language,
		MovieHash:     fp.HashString(),
		MovieByteSize: strconv.FormatUint(fp.Size, 10),
	}}

	body, err := c.call(ctx, "SearchSubtitles", token, criteria)
	if err != nil {
		return "", false, err
	}

	link, ok := extractMember(body, "SubDownloadLink")
	if !ok {
		return "", false, nil
	}

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false, fmt.Errorf("%w: SubDownloadLink %q is not an absolute http(s) URL", coreerrors.ErrProtocolParse, link)
	}
	return link, true, nil
}

// Logout invalidates a session token on the server. The response is not inspected.
func (c *XmlRpcClient) Logout(ctx context.Context, token string) error {
	_, err := c.call(ctx, "LogOut", token)
	return err
}

// Download fetches a gzip-compressed subtitle and returns it decompressed.
func (c *XmlRpcClient) Download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build download request for %s: %w", coreerrors.ErrTransport, link, err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", coreerrors.ErrTransport, link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: download %s: status code %d", coreerrors.ErrTransport, link, resp.StatusCode)
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read download body from %s: %w", coreerrors.ErrTransport, link, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", coreerrors.ErrDecompress, err)
	}
	defer zr.Close()

	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", coreerrors.ErrDecompress, err)
	}

	c.logger.WithFields(log.Fields{
		"compressed":   len(compressed),
		"decompressed": len(content),
	}).Debug("Subtitle downloaded")
	return content, nil
}

// call POSTs an XML-RPC method call and returns the raw response body.
// Only connection-level failures are errors; the status code is logged and
// left for the caller's field extraction to judge.
func (c *XmlRpcClient) call(ctx context.Context, method string, args ...interface{}) (string, error) {
	payload, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build %s request: %w", coreerrors.ErrTransport, method, err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s request: %w", coreerrors.ErrTransport, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s response: %w", coreerrors.ErrTransport, method, err)
	}

	c.logger.WithFields(log.Fields{
		"method": method,
		"status": resp.StatusCode,
	}).Debug("XML-RPC call completed")
	return string(body), nil
}

// memberPatterns caches one compiled pattern per member name.
var memberPatterns = map[string]*regexp.Regexp{
	"token":           memberPattern("token"),
	"status":          memberPattern("status"),
	"SubDownloadLink": memberPattern("SubDownloadLink"),
}

// memberPattern matches <member><name>NAME</name><value>...</value> with the
// value either typed as <string> or bare, tolerating whitespace between tags.
func memberPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`<name>\s*` + regexp.QuoteMeta(name) + `\s*</name>\s*<value>\s*(?:<string>([^<]*)</string>|([^<]*?))\s*</value>`)
}

// extractMember returns the first value of the named struct member in an
// XML-RPC response, entity-unescaped.
func extractMember(body, name string) (string, bool) {
	re, ok := memberPatterns[name]
	if !ok {
		re = memberPattern(name)
	}
	m := re.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	value := m[1]
	if value == "" {
		value = m[2]
	}
	return html.UnescapeString(value), true
}
