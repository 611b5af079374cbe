// Package zwiftpower scrapes rider profiles from the public profile pages.
package zwiftpower

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Fedora; Linux x86_64; rv:86.0) Gecko/20100101 Firefox/86.0"

	titleDelimiter = "-"
	avatarSelector = "img.img-circle"
	maxAvatarBytes = 10 << 20
)

var _ contract.ProfileSource = (*Source)(nil)

type Source struct {
	client     *http.Client
	profileURL string
	userAgent  string
	log        *slog.Logger
}

func NewSource(client *http.Client, profileURL, userAgent string, log *slog.Logger) *Source {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Source{client: client, profileURL: profileURL, userAgent: userAgent, log: log}
}

// PageURL returns the profile page of a participant, e.g. https://zwiftpower.com/profile.php?z=101.
func (s *Source) PageURL(id domain.ParticipantID) (string, error) {
	u, err := url.Parse(s.profileURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("z", string(id))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchProfile downloads and parses the profile page. A relative avatar src is
// resolved against the page URL.
func (s *Source) FetchProfile(ctx context.Context, id domain.ParticipantID) (domain.RemoteProfile, error) {
	pageURL, err := s.PageURL(id)
	if err != nil {
		return domain.RemoteProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProfileFetch, err)
	}
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return domain.RemoteProfile{}, err
	}
	defer body.Close()

	profile, err := ParseProfile(body)
	if err != nil {
		return domain.RemoteProfile{}, err
	}
	profile.AvatarURL, err = resolveReference(pageURL, profile.AvatarURL)
	if err != nil {
		return domain.RemoteProfile{}, fmt.Errorf("%w: avatar src %q: %v", apperrors.ErrProfileParse, profile.AvatarURL, err)
	}
	s.log.Debug("Profile page parsed", "participant", id, "name", profile.DisplayName, "avatar", profile.AvatarURL)
	return profile, nil
}

// FetchAvatar downloads the avatar and checks the payload really is an image.
func (s *Source) FetchAvatar(ctx context.Context, avatarURL string) ([]byte, error) {
	body, err := s.get(ctx, avatarURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxAvatarBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrProfileFetch, avatarURL, err)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is %s, not an image", apperrors.ErrProfileFetch, avatarURL, mime.String())
	}
	return data, nil
}

func (s *Source) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProfileFetch, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", apperrors.ErrProfileFetch, target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", apperrors.ErrProfileFetch, target, resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseProfile extracts the display name (second "-" separated segment of the
// page title) and the src of the first img.img-circle element.
func ParseProfile(r io.Reader) (domain.RemoteProfile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.RemoteProfile{}, fmt.Errorf("%w: %v", apperrors.ErrProfileParse, err)
	}

	title := doc.Find("title").First()
	if title.Length() == 0 {
		return domain.RemoteProfile{}, fmt.Errorf("%w: no title element", apperrors.ErrProfileParse)
	}
	parts := strings.Split(title.Text(), titleDelimiter)
	if len(parts) < 2 {
		return domain.RemoteProfile{}, fmt.Errorf("%w: title %q has no %q delimiter",
			apperrors.ErrProfileParse, title.Text(), titleDelimiter)
	}

	src, ok := doc.Find(avatarSelector).First().Attr("src")
	if !ok {
		return domain.RemoteProfile{}, fmt.Errorf("%w: no %s element", apperrors.ErrProfileParse, avatarSelector)
	}

	return domain.RemoteProfile{
		DisplayName: strings.TrimSpace(parts[1]),
		AvatarURL:   src,
	}, nil
}

func resolveReference(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
