package y4m

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/y4mstream"
)

func TestParseHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		want    Header
		bodyLen int
	}{
		{
			name:    "minimal",
			line:    "W4 H2 C420",
			want:    Header{Format: y4mstream.YUV420P, Width: 4, Height: 2},
			bodyLen: 12,
		},
		{
			name: "ffmpeg",
			line: "YUV4MPEG2 W1280 H720 F30000:1001 Ip A1:1 C420jpeg XYSCSS=420JPEG",
			want: Header{
				Format:    y4mstream.YUV420P,
				Width:     1280,
				Height:    720,
				FrameRate: FrameRate{Num: 30000, Den: 1001},
			},
			bodyLen: 1280 * 720 * 3 / 2,
		},
		{
			name:    "no magic and extra whitespace",
			line:    "  H8\tW16   ",
			want:    Header{Format: y4mstream.YUV420P, Width: 16, Height: 8},
			bodyLen: 192,
		},
		{
			name:    "unknown colorspace ignored",
			line:    "W2 H2 C444alpha",
			want:    Header{Format: y4mstream.YUV420P, Width: 2, Height: 2},
			bodyLen: 6,
		},
		{
			name:    "malformed frame rate ignored",
			line:    "W2 H2 Fabc",
			want:    Header{Format: y4mstream.YUV420P, Width: 2, Height: 2},
			bodyLen: 6,
		},
		{
			name:    "trailing carriage return",
			line:    "W2 H4 C420\r",
			want:    Header{Format: y4mstream.YUV420P, Width: 2, Height: 4},
			bodyLen: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hdr, err := ParseHeader(tt.line)
			require.NoError(t, err)
			require.Equal(t, tt.want, *hdr)
			require.Equal(t, tt.bodyLen, hdr.BodyLen())
		})
	}
}

func TestParseHeaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		token string
	}{
		{name: "non numeric height", line: "W4 HX C420", token: "HX"},
		{name: "non numeric width", line: "W4x H2", token: "W4x"},
		{name: "empty width", line: "W H2", token: "W"},
		{name: "zero height", line: "W4 H0", token: "H0"},
		{name: "negative width", line: "W-4 H2", token: "W-4"},
		{name: "missing width", line: "YUV4MPEG2 H2", token: "W"},
		{name: "missing height", line: "YUV4MPEG2 W2", token: "H"},
		{name: "oversized picture", line: "W65536 H65536 C420", token: "W65536 H65536"},
		{name: "body length overflow", line: "W3000000000 H3000000000 C420", token: "W3000000000 H3000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hdr, err := ParseHeader(tt.line)
			require.Nil(t, hdr)

			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
			require.Equal(t, tt.token, formatErr.Token)
		})
	}
}

func TestFormatErrorUnwrap(t *testing.T) {
	t.Parallel()

	_, err := ParseHeader("W4 HX C420")

	var numErr *strconv.NumError
	require.ErrorAs(t, err, &numErr)
	require.ErrorIs(t, numErr, strconv.ErrSyntax)
}

func TestHeaderString(t *testing.T) {
	t.Parallel()

	hdr := &Header{Format: y4mstream.YUV420P, Width: 4, Height: 2}
	require.Equal(t, "[YUV420P]4x2", hdr.String())

	hdr.FrameRate = FrameRate{Num: 25, Den: 1}
	require.Equal(t, "[YUV420P]4x2@25.000", hdr.String())
}

func TestFrameRateFPS(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 29.97, FrameRate{Num: 30000, Den: 1001}.FPS(), 0.001)
	require.Zero(t, FrameRate{}.FPS())
}
