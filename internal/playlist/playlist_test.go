package playlist

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleM3U = `#EXTM3U
#EXTINF:-1 tvg-name="NPO1" group-title="NL",NPO1 HD
http://example/npo1
#EXTINF:-1 tvg-name="NPO2" group-title="NL",NPO2 HD
http://example/npo2
#EXTINF:-1 group-title="BE",Een
http://example/een

#EXTINF:-1 tvg-name="RTL4" group-title="NL",RTL4 HD
http://example/rtl4
#EXTINF:-1 tvg-name="Broken" group-title="NL",Broken
#EXTINF:-1 tvg-name="NPO3" group-title="NL",NPO3 HD
http://example/npo3
`

func TestParse_AllGroups(t *testing.T) {
	channels := Parse(sampleM3U, "")
	require.Len(t, channels, 5)
	assert.Equal(t, Channel{Name: "NPO1", URL: "http://example/npo1"}, channels[0])
	assert.Equal(t, Channel{Name: "Een", URL: "http://example/een"}, channels[2])
}

func TestParse_GroupFilter(t *testing.T) {
	channels := Parse(sampleM3U, "BE")
	require.Len(t, channels, 1)
	assert.Equal(t, "Een", channels[0].Name)
}

func TestParse_FallbackNameAfterComma(t *testing.T) {
	channels := Parse("#EXTINF:-1,Plain Name\nhttp://example/plain\n", "")
	require.Len(t, channels, 1)
	assert.Equal(t, "Plain Name", channels[0].Name)
}

func TestParse_EntryWithoutURLIsDropped(t *testing.T) {
	channels := Parse(sampleM3U, "")
	for _, ch := range channels {
		assert.NotEqual(t, "Broken", ch.Name)
	}
}

func TestSelect(t *testing.T) {
	channels := []Channel{{Name: "A"}, {Name: "B HD"}, {Name: "C"}, {Name: "D"}}

	tests := []struct {
		name      string
		start     string
		count     int
		wantNames []string
		wantErr   bool
	}{
		{"from top", "", 2, []string{"A", "B HD"}, false},
		{"substring match", "B", 2, []string{"B HD", "C"}, false},
		{"window clipped at end", "C", 10, []string{"C", "D"}, false},
		{"start not found", "Z", 2, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(channels, tt.start, tt.count)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, ch := range got {
				names = append(names, ch.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestSelect_EmptyPlaylist(t *testing.T) {
	_, err := Select(nil, "", 5)
	require.Error(t, err)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NPO1", "NPO1"},
		{"NPO1 ᴿᴬᵂ", "NPO1"},
		{"NPO1 ᴿᴬᵂ (backup)", "NPO1"},
		{"  NPO1  ", "NPO1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Channel{Name: tt.in}.BaseName())
	}
}

func TestSafeFileName(t *testing.T) {
	ch := Channel{Name: `BBC One: North/West ᴿᴬᵂ`}
	assert.Equal(t, "BBC One NorthWest", ch.SafeFileName())
}

func TestFetch(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, sampleM3U)
	}))
	defer srv.Close()

	channels, err := Fetch(srv.URL, "test-agent", "NL", "", 2)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", gotAgent)
	require.Len(t, channels, 2)
	assert.Equal(t, "NPO1", channels[0].Name)
}

func TestFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Fetch(srv.URL, "test-agent", "", "", 2)
	require.Error(t, err)
}
