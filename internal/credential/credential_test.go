package credential

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Absent(t *testing.T) {
	for _, raw := range []string{"", "   ", "sessionid=abc", "csrftokenx=1; xcsrftoken=2"} {
		_, ok := Read(StaticStore(raw), "csrftoken")
		assert.False(t, ok, "raw=%q", raw)
	}
	_, ok := Read(nil, "csrftoken")
	assert.False(t, ok)
}

func TestRead_WhitespaceAndDecoding(t *testing.T) {
	store := StaticStore("  sessionid=s1 ;   csrftoken=a%20b%2Bc;theme=dark  ")
	v, ok := Read(store, "csrftoken")
	require.True(t, ok)
	assert.Equal(t, "a b+c", v)

	v, ok = Read(store, "theme")
	require.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestRead_FirstMatchWins(t *testing.T) {
	v, ok := Read(StaticStore("csrftoken=first; csrftoken=second"), "csrftoken")
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestRead_MalformedEscapeReturnsRaw(t *testing.T) {
	v, ok := Read(StaticStore("csrftoken=%zz"), "csrftoken")
	require.True(t, ok)
	assert.Equal(t, "%zz", v)
}

func TestPairs_SkipsBrokenEntries(t *testing.T) {
	got := Pairs(" a=1 ;; flag; =orphan; b = x%20y ;")
	assert.Equal(t, []Pair{{Name: "a", Value: "1"}, {Name: "b", Value: "x%20y"}}, got)
	assert.Empty(t, Pairs(""))
	assert.Equal(t, "x y", Decode("x%20y"))
}

func TestJarStore_SeesRotation(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, _ := url.Parse("http://shop.local/")
	store := JarStore{Jar: jar, Base: base}

	jar.SetCookies(base, []*http.Cookie{{Name: "csrftoken", Value: "one", Path: "/"}})
	v, _ := Read(store, "csrftoken")
	assert.Equal(t, "one", v)

	jar.SetCookies(base, []*http.Cookie{{Name: "csrftoken", Value: "two", Path: "/"}})
	v, _ = Read(store, "csrftoken")
	assert.Equal(t, "two", v)
}
