package screenshoter

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/y4mstream/format/y4m"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.FatalLevel)
	m.Run()
}

func pushFrame(t *testing.T, store *y4m.Reader, luma byte) {
	t.Helper()
	frame := append([]byte("FRAME\n"), bytes.Repeat([]byte{luma}, 16*8)...)
	frame = append(frame, bytes.Repeat([]byte{128}, 2*8*4)...)
	completed, err := store.Push(frame)
	require.NoError(t, err)
	require.True(t, completed)
}

func newStore(t *testing.T) *y4m.Reader {
	t.Helper()
	store := y4m.New(y4m.DefaultMaxHeaderLen)
	_, err := store.Push([]byte("YUV4MPEG2 W16 H8 F25:1 C420jpeg\n"))
	require.NoError(t, err)
	return store
}

func TestScreenshotNoFrame(t *testing.T) {
	t.Parallel()

	shots := New(y4m.New(y4m.DefaultMaxHeaderLen), 0, 0, 80)
	_, _, err := shots.Screenshot()
	require.ErrorIs(t, err, ErrNoFrame)

	shots = New(newStore(t), 0, 0, 80)
	_, _, err = shots.Screenshot()
	require.ErrorIs(t, err, ErrNoFrame)
}

func TestScreenshotSourceSize(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	pushFrame(t, store, 200)

	seq, jpg, err := New(store, 0, 0, 90).Screenshot()
	require.NoError(t, err)
	require.Equal(t, int64(0), seq)

	img, err := jpeg.Decode(bytes.NewReader(jpg))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
}

func TestScreenshotScaledAndCached(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	pushFrame(t, store, 50)
	shots := New(store, 8, 0, 75)

	seq, first, err := shots.Screenshot()
	require.NoError(t, err)
	require.Equal(t, int64(0), seq)

	img, err := jpeg.Decode(bytes.NewReader(first))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())

	_, cached, err := shots.Screenshot()
	require.NoError(t, err)
	require.Same(t, &first[0], &cached[0])

	pushFrame(t, store, 250)
	seq, next, err := shots.Screenshot()
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)
	require.NotEqual(t, first, next)
}

func TestTargetSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		srcW, srcH, w, h int
		wantW, wantH     int
	}{
		{1280, 720, 0, 0, 1280, 720},
		{1280, 720, 640, 0, 640, 360},
		{1280, 720, 0, 360, 640, 360},
		{1280, 720, 100, 100, 100, 100},
		{1000, 1, 10, 0, 10, 1},
	}
	for _, tt := range tests {
		w, h := TargetSize(tt.srcW, tt.srcH, tt.w, tt.h)
		require.Equal(t, tt.wantW, w)
		require.Equal(t, tt.wantH, h)
	}
}
