package zwiftpower

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "zwift-team-view/errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

const profilePage = `<html>
<head><title>ZwiftPower - Alice Rider - Profile</title></head>
<body>
<img class="logo" src="/logo.png">
<img class="img-circle" src="%s">
<img class="img-circle" src="/second.jpeg">
</body>
</html>`

func TestParseProfile(t *testing.T) {
	req := require.New(t)

	profile, err := ParseProfile(strings.NewReader(strings.Replace(profilePage, "%s", "https://cdn.example/avatars/abc123", 1)))

	req.NoError(err)
	req.Equal("Alice Rider", profile.DisplayName)
	req.Equal("https://cdn.example/avatars/abc123", profile.AvatarURL)
}

func TestParseProfile_Missing_Delimiter(t *testing.T) {
	req := require.New(t)

	_, err := ParseProfile(strings.NewReader(`<html><head><title>Just a title</title></head>
<body><img class="img-circle" src="a.png"></body></html>`))

	req.ErrorIs(err, apperrors.ErrProfileParse)
}

func TestParseProfile_Missing_Avatar(t *testing.T) {
	req := require.New(t)

	_, err := ParseProfile(strings.NewReader(`<html><head><title>ZwiftPower - Alice</title></head>
<body><img class="logo" src="a.png"></body></html>`))

	req.ErrorIs(err, apperrors.ErrProfileParse)
}

func TestParseProfile_Missing_Title(t *testing.T) {
	req := require.New(t)

	_, err := ParseProfile(strings.NewReader(`<html><body><img class="img-circle" src="a.png"></body></html>`))

	req.ErrorIs(err, apperrors.ErrProfileParse)
}

func newProfileServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Query().Get("z") {
		case "101":
			_, _ = w.Write([]byte(strings.Replace(profilePage, "%s", "/avatars/abc123", 1)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/avatars/abc123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pngBytes)
	})
	mux.HandleFunc("/avatars/not-an-image", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSource_FetchProfile(t *testing.T) {
	req := require.New(t)
	server := newProfileServer(t)
	source := NewSource(server.Client(), server.URL+"/profile.php", "", slog.Default())

	profile, err := source.FetchProfile(context.Background(), "101")

	req.NoError(err)
	req.Equal("Alice Rider", profile.DisplayName)
	req.Equal(server.URL+"/avatars/abc123", profile.AvatarURL)
}

func TestSource_FetchProfile_Not_Found(t *testing.T) {
	req := require.New(t)
	server := newProfileServer(t)
	source := NewSource(server.Client(), server.URL+"/profile.php", "", slog.Default())

	_, err := source.FetchProfile(context.Background(), "999")

	req.ErrorIs(err, apperrors.ErrProfileFetch)
}

func TestSource_FetchProfile_Transport_Error(t *testing.T) {
	req := require.New(t)
	server := newProfileServer(t)
	source := NewSource(server.Client(), server.URL+"/profile.php", "", slog.Default())
	server.Close()

	_, err := source.FetchProfile(context.Background(), "101")

	req.True(errors.Is(err, apperrors.ErrProfileFetch))
}

func TestSource_FetchAvatar(t *testing.T) {
	req := require.New(t)
	server := newProfileServer(t)
	source := NewSource(server.Client(), server.URL+"/profile.php", "", slog.Default())

	data, err := source.FetchAvatar(context.Background(), server.URL+"/avatars/abc123")
	req.NoError(err)
	req.Equal(pngBytes, data)

	_, err = source.FetchAvatar(context.Background(), server.URL+"/avatars/not-an-image")
	req.ErrorIs(err, apperrors.ErrProfileFetch)

	_, err = source.FetchAvatar(context.Background(), server.URL+"/avatars/missing")
	req.ErrorIs(err, apperrors.ErrProfileFetch)
}

func TestSource_PageURL(t *testing.T) {
	req := require.New(t)
	source := NewSource(http.DefaultClient, "https://zwiftpower.com/profile.php", "", slog.Default())

	pageURL, err := source.PageURL("101")

	req.NoError(err)
	req.Equal("https://zwiftpower.com/profile.php?z=101", pageURL)
}
