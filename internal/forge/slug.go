package forge

import (
	"net/url"
	"strings"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// ParseRepoSlug extracts owner and repository from a git remote URL such as
// git@github.com:acme/widgets.git or https://github.com/acme/widgets.
func ParseRepoSlug(remote string) (owner, repo string, err error) {
	remote = strings.TrimSpace(remote)
	var path string
	switch {
	case strings.Contains(remote, "://"):
		u, perr := url.Parse(remote)
		if perr != nil {
			return "", "", ferrors.WrapError(perr, ferrors.CategoryConfig, "invalid remote URL").WithContext("url", remote).Build()
		}
		path = u.Path
	case strings.Contains(remote, ":"):
		_, path, _ = strings.Cut(remote, ":")
	default:
		path = remote
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", ferrors.ConfigError("cannot determine owner/repo from remote URL").
			WithContext("url", remote).
			WithHint("set forge.owner and forge.repo in .depmerge.yaml").
			Build()
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
