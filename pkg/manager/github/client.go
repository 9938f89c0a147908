package github

import (
	"context"
	"os"
	"strings"
	"sync"

	gh "github.com/google/go-github/v57/github"
	depshttp "github.com/vx-dev/vx/pkg/httpclient"
	"golang.org/x/oauth2"
)

// GitHubClient wraps the go-github API client behind a process-wide
// singleton so every manager shares one token and one transport. The
// token is optional: unauthenticated clients work against the public API
// at its lower rate limit.
type GitHubClient struct {
	mu          sync.RWMutex
	client      *gh.Client
	token       string
	tokenSource string
}

var (
	clientInstance *GitHubClient
	clientOnce     sync.Once
)

// tokenEnvVars are checked in order; the first set one wins.
var tokenEnvVars = []string{"GITHUB_TOKEN", "VX_GITHUB_TOKEN", "GH_TOKEN"}

// GetClient returns the singleton GitHubClient instance
func GetClient() *GitHubClient {
	clientOnce.Do(func() {
		c := &GitHubClient{}
		for _, name := range tokenEnvVars {
			if token := strings.TrimSpace(os.Getenv(name)); token != "" {
				c.token = token
				c.tokenSource = name
				break
			}
		}
		c.client = buildClient(c.token)
		clientInstance = c
	})
	return clientInstance
}

func buildClient(token string) *gh.Client {
	if token == "" {
		return gh.NewClient(depshttp.GetHttpClient())
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return gh.NewClient(oauth2.NewClient(context.Background(), ts))
}

// SetToken swaps in a caller-provided token (e.g. from a CLI flag).
func (c *GitHubClient) SetToken(token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.tokenSource = "flag"
	c.client = buildClient(token)
}

// Client returns the REST API client
func (c *GitHubClient) Client() *gh.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// TokenSource names where the active token came from, "" when anonymous.
func (c *GitHubClient) TokenSource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenSource
}
