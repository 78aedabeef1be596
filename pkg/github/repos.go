package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pyventory/pyventory/pkg/errors"
)

// ListOrgRepos returns the organization's repositories, deduplicated by name
// across two listings: the organization endpoint, then the authenticated
// user's repositories filtered to the organization. The second listing
// surfaces private repositories the token can reach that the first omits.
// A positive limit caps the result, preserving discovery order.
func (c *Client) ListOrgRepos(ctx context.Context, org string, limit int) ([]Repo, error) {
	p := newPager(c, limit, func(r Repo) string { return r.Name })

	orgURL := fmt.Sprintf("%s/orgs/%s/repos?type=all&sort=full_name&direction=asc", c.baseURL, org)
	if err := p.collect(ctx, orgURL); err != nil {
		return nil, err
	}
	c.logger.Info("organization listing complete", "repos", len(p.items))

	p.filter = func(r Repo) bool { return r.Owner.Login == org }
	userURL := c.baseURL + "/user/repos?affiliation=organization_member&type=all&sort=full_name&direction=asc"
	if err := p.collect(ctx, userURL); err != nil {
		return nil, err
	}

	repos := p.results()
	c.logger.Info("repository discovery complete", "org", org, "repos", len(repos))
	return repos, nil
}

// ListBranches returns every branch of the repository given as "owner/name".
func (c *Client) ListBranches(ctx context.Context, fullName string) ([]Branch, error) {
	p := newPager(c, 0, func(b Branch) string { return b.Name })
	endpoint := fmt.Sprintf("%s/repos/%s/branches", c.baseURL, fullName)
	if err := p.collect(ctx, endpoint); err != nil {
		return nil, err
	}
	return p.results(), nil
}

// VerifyAuth authenticates the token against the user endpoint and returns
// the login together with the token's granted OAuth scopes. A rejected token
// is a configuration error worth failing fast on, before a long traversal
// burns quota.
func (c *Client) VerifyAuth(ctx context.Context) (*User, []string, error) {
	var user User
	res, err := c.getJSON(ctx, c.baseURL+"/user", &user)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeNetwork, err, "verifying token")
	}
	if res.StatusCode != http.StatusOK {
		return nil, nil, errors.New(errors.ErrCodeUnauthorized,
			"token rejected (HTTP %d); check GITHUB_TOKEN", res.StatusCode)
	}

	var scopes []string
	for _, s := range strings.Split(res.Header.Get("X-OAuth-Scopes"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return &user, scopes, nil
}
