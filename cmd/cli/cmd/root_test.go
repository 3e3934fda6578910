package cmd_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	clicmd "github.com/angelospk/subgrabber/cmd/cli/cmd"
	coreerrors "github.com/angelospk/subgrabber/pkg/core/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const subtitleBody = "1\n00:00:01,000 --> 00:00:03,000\nHello there.\n"

// fakeService is a stand-in for the OpenSubtitles XML-RPC endpoint and download host.
type fakeService struct {
	server   *httptest.Server
	found    bool
	logins   atomic.Int32
	searches atomic.Int32
	logouts  atomic.Int32
	fetches  atomic.Int32
}

func newFakeService(t *testing.T, found bool) *fakeService {
	fs := &fakeService{found: found}
	fs.server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/sub.gz" {
		fs.fetches.Add(1)
		zw := gzip.NewWriter(w)
		_, _ = io.WriteString(zw, subtitleBody)
		_ = zw.Close()
		return
	}

	body, _ := io.ReadAll(r.Body)
	payload := string(body)
	switch {
	case strings.Contains(payload, "<methodName>LogIn</methodName>"):
		fs.logins.Add(1)
		_, _ = io.WriteString(w, `<methodResponse><params><param><value><struct>
<member><name>token</name><value><string>server-token</string></value></member>
<member><name>status</name><value><string>200 OK</string></value></member>
</struct></value></param></params></methodResponse>`)
	case strings.Contains(payload, "<methodName>SearchSubtitles</methodName>"):
		fs.searches.Add(1)
		if !fs.found {
			_, _ = io.WriteString(w, `<methodResponse><params><param><value><struct>
<member><name>data</name><value><boolean>0</boolean></value></member>
</struct></value></param></params></methodResponse>`)
			return
		}
		_, _ = io.WriteString(w, `<methodResponse><params><param><value><struct>
<member><name>data</name><value><array><data><value><struct>
<member><name>SubDownloadLink</name><value><string>`+fs.server.URL+`/sub.gz</string></value></member>
</struct></value></data></array></value></member>
</struct></value></param></params></methodResponse>`)
	case strings.Contains(payload, "<methodName>LogOut</methodName>"):
		fs.logouts.Add(1)
		_, _ = io.WriteString(w, `<methodResponse/>`)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

// executeCommand runs the root command against the given endpoint and cache directory.
func executeCommand(t *testing.T, endpoint, cacheDir string, args ...string) (string, string, error) {
	t.Helper()

	vip := viper.GetViper()
	originalEndpoint := vip.GetString(clicmd.CfgKeyEndpoint)
	originalCacheDir := vip.GetString(clicmd.CfgKeyCacheDir)
	vip.Set(clicmd.CfgKeyEndpoint, endpoint)
	vip.Set(clicmd.CfgKeyCacheDir, cacheDir)
	defer vip.Set(clicmd.CfgKeyEndpoint, originalEndpoint)
	defer vip.Set(clicmd.CfgKeyCacheDir, originalCacheDir)

	outBuf := bytes.NewBufferString("")
	errBuf := bytes.NewBufferString("")
	clicmd.RootCmd.SetOut(outBuf)
	clicmd.RootCmd.SetErr(errBuf)
	if args == nil {
		args = []string{}
	}
	clicmd.RootCmd.SetArgs(args)
	defer clicmd.RootCmd.SetArgs([]string{})

	err := clicmd.RootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeMedia(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x2a}, size), 0644))
	return path
}

func TestGrab_DownloadsSubtitle(t *testing.T) {
	service := newFakeService(t, true)
	mediaDir := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "subgrabber")
	mediaPath := writeMedia(t, mediaDir, "Some.Movie.2010.720p.mkv", 200000)

	output, _, err := executeCommand(t, service.server.URL, cacheDir, mediaPath)
	require.NoError(t, err)

	subPath := filepath.Join(mediaDir, "Some.Movie.2010.720p.srt")
	assert.Contains(t, output, "Subtitle written to "+subPath)

	content, err := os.ReadFile(subPath)
	require.NoError(t, err)
	assert.Equal(t, subtitleBody, string(content))

	token, err := os.ReadFile(filepath.Join(cacheDir, "token"))
	require.NoError(t, err)
	assert.Equal(t, "server-token", string(token))

	assert.Equal(t, int32(1), service.logins.Load())
	assert.Equal(t, int32(1), service.searches.Load())
	assert.Equal(t, int32(1), service.fetches.Load())
}

func TestGrab_UsesCachedToken(t *testing.T) {
	service := newFakeService(t, true)
	mediaDir := t.TempDir()
	cacheDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "token"), []byte("cached"), 0600))
	mediaPath := writeMedia(t, mediaDir, "movie.mp4", 1024)

	_, _, err := executeCommand(t, service.server.URL, cacheDir, mediaPath)
	require.NoError(t, err)

	assert.Equal(t, int32(0), service.logins.Load())
	assert.FileExists(t, filepath.Join(mediaDir, "movie.srt"))
}

func TestGrab_SkipsExistingSubtitle(t *testing.T) {
	service := newFakeService(t, true)
	mediaDir := t.TempDir()
	mediaPath := writeMedia(t, mediaDir, "movie.mp4", 1024)
	subPath := filepath.Join(mediaDir, "movie.srt")
	require.NoError(t, os.WriteFile(subPath, []byte("existing"), 0644))

	output, _, err := executeCommand(t, service.server.URL, t.TempDir(), mediaPath)
	require.NoError(t, err)
	assert.Contains(t, output, "already exists, skipping")

	content, err := os.ReadFile(subPath)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(content))
	assert.Equal(t, int32(0), service.logins.Load()+service.searches.Load())
}

func TestGrab_SearchExhausted(t *testing.T) {
	service := newFakeService(t, false)
	mediaDir := t.TempDir()
	mediaPath := writeMedia(t, mediaDir, "movie.mp4", 1024)

	_, _, err := executeCommand(t, service.server.URL, t.TempDir(), mediaPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrSearchExhausted)

	assert.Equal(t, int32(2), service.logins.Load())
	assert.Equal(t, int32(2), service.searches.Load())
	assert.Equal(t, int32(0), service.fetches.Load())
	assert.NoFileExists(t, filepath.Join(mediaDir, "movie.srt"))
}

func TestGrab_MissingMediaFile(t *testing.T) {
	service := newFakeService(t, true)

	_, _, err := executeCommand(t, service.server.URL, t.TempDir(), filepath.Join(t.TempDir(), "missing.mkv"))
	assert.ErrorIs(t, err, coreerrors.ErrIO)
	assert.Equal(t, int32(0), service.searches.Load())
}

func TestGrab_RequiresOneArgument(t *testing.T) {
	_, _, err := executeCommand(t, "http://127.0.0.1:1", t.TempDir())
	assert.Error(t, err)

	_, _, err = executeCommand(t, "http://127.0.0.1:1", t.TempDir(), "a.mkv", "b.mkv")
	assert.Error(t, err)
}

func TestHashCommand(t *testing.T) {
	mediaDir := t.TempDir()
	mediaPath := filepath.Join(mediaDir, "zeros.bin")
	require.NoError(t, os.WriteFile(mediaPath, make([]byte, 131072), 0644))

	output, _, err := executeCommand(t, "http://127.0.0.1:1", t.TempDir(), "hash", mediaPath)
	require.NoError(t, err)
	assert.Contains(t, output, "hash: 0000000000020000")
	assert.Contains(t, output, "size: 131072 bytes")
}
