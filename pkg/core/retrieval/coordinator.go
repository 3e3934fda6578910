// Package retrieval drives the token / search / retry / download sequence
// against the OpenSubtitles XML-RPC service.
package retrieval

import (
	"context"
	"fmt"

	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
	"github.com/angelospk/subgrabber/pkg/core/fileops"
	"github.com/angelospk/subgrabber/pkg/core/opensubtitles"
	"github.com/angelospk/subgrabber/pkg/core/tokenstore"
	log "github.com/sirupsen/logrus"
)

// TokenStore persists the session token between invocations.
type TokenStore interface {
	Load() (token string, ok bool, err error)
	Save(token string) error
}

// ProtocolClient is the subset of the XML-RPC client the coordinator drives.
type ProtocolClient interface {
	Login(ctx context.Context) (string, error)
	SearchSubtitles(ctx context.Context, token string, fp fileops.Fingerprint) (link string, found bool, err error)
	Download(ctx context.Context, link string) ([]byte, error)
}

var (
	_ TokenStore     = (*tokenstore.Store)(nil)
	_ ProtocolClient = (*opensubtitles.XmlRpcClient)(nil)
)

// State names the steps of a retrieval, used as a log field.
type State string

const (
	StateStart         State = "start"
	StateAuthenticated State = "authenticated"
	StateSearched      State = "searched"
	StateRetried       State = "retried"
	StateResolved      State = "resolved"
	StateFailed        State = "failed"
)

// Coordinator resolves a fingerprint to subtitle bytes.
//
// A search that returns no link triggers exactly one token refresh and one
// more search. This happens even when the cached token was fine and the file
// simply has no subtitle, because the service response does not tell the
// two apart.
type Coordinator struct {
	store  TokenStore
	client ProtocolClient
	logger *log.Logger
}

// New creates a Coordinator. A nil logger falls back to the logrus standard logger.
func New(store TokenStore, client ProtocolClient, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Coordinator{
		store:  store,
		client: client,
		logger: logger,
	}
}

// Retrieve resolves the download link for fp and returns the decompressed subtitle.
func (c *Coordinator) Retrieve(ctx context.Context, fp fileops.Fingerprint) ([]byte, error) {
	link, err := c.ResolveLink(ctx, fp)
	if err != nil {
		return nil, err
	}

	content, err := c.client.Download(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("download subtitle: %w", err)
	}
	return content, nil
}

// ResolveLink runs the search state machine and returns the best-match download link.
func (c *Coordinator) ResolveLink(ctx context.Context, fp fileops.Fingerprint) (string, error) {
	logger := c.logger.WithFields(log.Fields{
		"hash": fp.HashString(),
		"size": fp.Size,
	})
	logger.WithField("state", StateStart).Debug("Starting subtitle lookup")

	token, err := c.cachedToken(ctx, logger)
	if err != nil {
		return "", err
	}
	logger.WithField("state", StateAuthenticated).Debug("Token ready")

	link, found, err := c.client.SearchSubtitles(ctx, token, fp)
	if err != nil {
		return "", fmt.Errorf("search subtitles: %w", err)
	}
	if found {
		logger.WithFields(log.Fields{"state": StateResolved, "link": link}).Debug("Subtitle found")
		return link, nil
	}

	logger.WithField("state", StateSearched).Info("Search returned no subtitle, renewing the token and searching again")
	token, err = c.refreshToken(ctx)
	if err != nil {
		return "", err
	}

	logger.WithField("state", StateRetried).Debug("Searching again with fresh token")
	link, found, err = c.client.SearchSubtitles(ctx, token, fp)
	if err != nil {
		return "", fmt.Errorf("search subtitles with fresh token: %w", err)
	}
	if !found {
		logger.WithField("state", StateFailed).Debug("Retry returned no subtitle")
		return "", fmt.Errorf("%w (hash %s, size %d)", coreerrors.ErrSearchExhausted, fp.HashString(), fp.Size)
	}

	logger.WithFields(log.Fields{"state": StateResolved, "link": link}).Debug("Subtitle found after token refresh")
	return link, nil
}

// cachedToken returns the stored token, logging in and persisting a new one if none is cached.
func (c *Coordinator) cachedToken(ctx context.Context, logger *log.Entry) (string, error) {
	token, ok, err := c.store.Load()
	if err != nil {
		return "", fmt.Errorf("load cached token: %w", err)
	}
	if ok {
		logger.Debug("Using cached token")
		return token, nil
	}

	logger.Debug("No cached token, logging in")
	return c.refreshToken(ctx)
}

// refreshToken logs in and replaces the cached token.
func (c *Coordinator) refreshToken(ctx context.Context) (string, error) {
	token, err := c.client.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("log in: %w", err)
	}
	if err := c.store.Save(token); err != nil {
		return "", fmt.Errorf("cache token: %w", err)
	}
	return token, nil
}
