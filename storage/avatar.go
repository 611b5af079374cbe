package storage

import (
	"net/url"
	"path"
)

// AvatarFileName names the cached image after the remote basename. Names without
// an extension get ".jpeg", which is what the profile site serves.
func AvatarFileName(avatarURL string) string {
	name := avatarURL
	if u, err := url.Parse(avatarURL); err == nil {
		name = u.Path
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		name = "avatar"
	}
	if path.Ext(name) == "" {
		name += ".jpeg"
	}
	return name
}
