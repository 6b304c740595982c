package server

import (
	"bytes"
	"encoding/json"
	"image/jpeg"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/y4mstream/format/y4m"
	"github.com/ugparu/y4mstream/utils/screenshoter"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.FatalLevel)
	m.Run()
}

func newTestServer(t *testing.T) (*Server, *y4m.Reader) {
	t.Helper()
	store := y4m.New(y4m.DefaultMaxHeaderLen)
	return New("127.0.0.1:0", store, screenshoter.New(store, 0, 0, 80)), store
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestEmptyStream(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	for _, path := range []string{"/header", "/frame", "/frame.jpg"} {
		require.Equal(t, http.StatusServiceUnavailable, get(t, s, path).Code, path)
	}
}

func TestFrameEndpoints(t *testing.T) {
	t.Parallel()

	s, store := newTestServer(t)
	body := bytes.Repeat([]byte{90}, 8*4*3/2)
	_, err := store.Push(append([]byte("YUV4MPEG2 W8 H4 F30:1 C420\nFRAME\n"), body...))
	require.NoError(t, err)

	rec := get(t, s, "/header")
	require.Equal(t, http.StatusOK, rec.Code)
	var hdr HeaderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hdr))
	require.Equal(t, HeaderResponse{Format: "YUV420P", Width: 8, Height: 4, FPS: 30, BodyLen: 48, Seq: 0}, hdr)

	rec = get(t, s, "/frame")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", rec.Header().Get(SeqHeader))
	require.Equal(t, body, rec.Body.Bytes())

	rec = get(t, s, "/frame.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	img, err := jpeg.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/frame", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeAndClose(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	require.NoError(t, s.Serve())
	s.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
	require.NoError(t, s.Err())
}

func TestServeAddressInUse(t *testing.T) {
	t.Parallel()

	_, store := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	second := New(ln.Addr().String(), store, screenshoter.New(store, 0, 0, 90))
	require.Error(t, second.Serve())

	select {
	case <-second.Done():
	case <-time.After(time.Second):
		t.Fatal("failed server is not done")
	}
	require.Error(t, second.Err())
	second.Close()
}
