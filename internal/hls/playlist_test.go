package hls

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/hlsgrab/internal/model"
)

const mediaBase = "https://cdn.example.com/course/lesson1/720p/index.m3u8"

func TestParseMediaPlaylist_PreservesOrderAndResolves(t *testing.T) {
	text := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-TARGETDURATION:6",
		"#EXTINF:6.0,",
		"seg-000.ts",
		"",
		"#EXTINF:6.0,",
		"https://other.example.net/abs/seg-001.ts",
		"#EXTINF:6.0,",
		"../shared/seg-002.ts?token=abc",
		"#EXTINF:4.2,",
		"/root/seg-003.TS",
		"#EXT-X-ENDLIST",
	}, "\r\n")

	urls, err := ParseMediaPlaylist(text, mediaBase)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/course/lesson1/720p/seg-000.ts",
		"https://other.example.net/abs/seg-001.ts",
		"https://cdn.example.com/course/lesson1/shared/seg-002.ts?token=abc",
		"https://cdn.example.com/root/seg-003.TS",
	}, urls)
}

func TestParseMediaPlaylist_ManySegmentsRoundTrip(t *testing.T) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	want := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "#EXTINF:2.0,\n")
		if i%2 == 0 {
			fmt.Fprintf(&b, "part%d.ts\n", i)
			want = append(want, fmt.Sprintf("https://cdn.example.com/course/lesson1/720p/part%d.ts", i))
		} else {
			fmt.Fprintf(&b, "https://edge.example.org/p/part%d.ts\n", i)
			want = append(want, fmt.Sprintf("https://edge.example.org/p/part%d.ts", i))
		}
	}

	urls, err := ParseMediaPlaylist(b.String(), mediaBase)
	require.NoError(t, err)
	assert.Equal(t, want, urls)
}

func TestParseMediaPlaylist_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: " \n\t\n"},
		{name: "binary", text: "\x00\x01\x02seg.ts"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMediaPlaylist(tc.text, mediaBase)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrMalformedPlaylist), "got %v", err)
		})
	}
}

func TestParseMediaPlaylist_NoSegmentsIsNotAnError(t *testing.T) {
	urls, err := ParseMediaPlaylist("#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXT-X-ENDLIST\n", mediaBase)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestParseMediaSegments_CarriesExtinfAndCustomExt(t *testing.T) {
	text := "#EXTM3U\n#EXTINF:5.005,title\na.m4s\nb.m4s\n#EXTINF:bogus,\nc.m4s\nignored.ts\n"

	segs, err := ParseMediaSegments(text, mediaBase, "m4s")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.InDelta(t, 5.005, segs[0].Duration, 1e-9)
	assert.Zero(t, segs[1].Duration)
	assert.Zero(t, segs[2].Duration)
	assert.True(t, strings.HasSuffix(segs[2].URL, "/c.m4s"))
}

func TestParseVariants_SortsByBandwidthStable(t *testing.T) {
	master := strings.Join([]string{
		"#EXTM3U",
		`#EXT-X-STREAM-INF:BANDWIDTH=500,CODECS="avc1.4d401e,mp4a.40.2",RESOLUTION=640x360`,
		"360p/index.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=1200,RESOLUTION=1280x720",
		"# a comment between tag and uri",
		"",
		"720p/index.m3u8",
		"#EXT-X-STREAM-INF:RESOLUTION=1x1",
		"nobw/index.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=800",
		"https://alt.example.com/540p/index.m3u8",
		"#EXT-X-STREAM-INF:BANDWIDTH=abc",
		"garbled/index.m3u8",
		`#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=99999,URI="iframes.m3u8"`,
	}, "\n")

	variants := ParseVariants(master, "https://cdn.example.com/course/master.m3u8")
	require.Len(t, variants, 5)

	assert.Equal(t, 1200, variants[0].Bandwidth)
	assert.Equal(t, "https://cdn.example.com/course/720p/index.m3u8", variants[0].URL)
	assert.Equal(t, "1280x720", variants[0].Resolution)
	assert.Equal(t, 800, variants[1].Bandwidth)
	assert.Equal(t, "https://alt.example.com/540p/index.m3u8", variants[1].URL)
	assert.Equal(t, 500, variants[2].Bandwidth)
	assert.Equal(t, "640x360", variants[2].Resolution)
	// Zero-bandwidth ties keep document order.
	assert.Equal(t, "https://cdn.example.com/course/nobw/index.m3u8", variants[3].URL)
	assert.Equal(t, "https://cdn.example.com/course/garbled/index.m3u8", variants[4].URL)
	assert.Zero(t, variants[4].Bandwidth)
}

func TestIsMediaPlaylist(t *testing.T) {
	assert.True(t, IsMediaPlaylist("#EXTM3U\n#EXTINF:1,\nx.ts?sig=1\n", "ts"))
	assert.False(t, IsMediaPlaylist("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nv.m3u8\n", "ts"))
	assert.False(t, IsMediaPlaylist("#EXTM3U\n#EXT-X-MAP:URI=\"init.ts\"\n", ".ts"))
}

func TestParseVariants_Lenient(t *testing.T) {
	base := "https://cdn.example.com/m/master.m3u8"

	noHeader := "#EXT-X-STREAM-INF:BANDWIDTH=500\nlo.m3u8\n"
	variants := ParseVariants(noHeader, base)
	require.Len(t, variants, 1)
	assert.Equal(t, "https://cdn.example.com/m/lo.m3u8", variants[0].URL)
	assert.Equal(t, 500, variants[0].Bandwidth)

	// A trailing tag with no URI line is not a variant.
	dangling := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=500\nlo.m3u8\n#EXT-X-STREAM-INF:BANDWIDTH=900\n"
	require.Len(t, ParseVariants(dangling, base), 1)

	assert.Empty(t, ParseVariants("#EXTM3U\n#EXTINF:4,\n0.ts\n#EXT-X-ENDLIST\n", base))
	assert.Empty(t, ParseVariants("not a playlist", base))
}
