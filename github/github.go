package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/go-resty/resty/v2"
	"github.com/packlaunch/packlaunch/cmd"
	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var githubCmd = &cobra.Command{
	Use:     "github",
	Aliases: []string{"gh"},
	Short:   "Add mods from GitHub releases to an instance",
}

func init() {
	cmd.Add(githubCmd)
}

type apiClient struct {
	r *resty.Client
}

func newAPIClient() *apiClient {
	r := resty.New().
		SetBaseURL("https://api.github.com").
		SetHeader("User-Agent", core.UserAgent).
		SetHeader("Accept", "application/vnd.github+json").
		SetTimeout(30 * time.Second)
	return &apiClient{r: r}
}

var api = newAPIClient()

// get fetches a GitHub API endpoint into result, authenticating with github.token when one is configured
func (c *apiClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req := c.r.R().SetContext(ctx)
	if token := viper.GetString("github.token"); token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Get(endpoint)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%s not found on GitHub", endpoint)
	case resp.IsError():
		return fmt.Errorf("invalid response status %v for %s", resp.Status(), endpoint)
	}
	return json.Unmarshal(resp.Body(), result)
}

func (c *apiClient) getRepo(ctx context.Context, slug string) (Repo, error) {
	var repo Repo
	err := c.get(ctx, "/repos/"+slug, &repo)
	return repo, err
}

func (c *apiClient) getReleases(ctx context.Context, slug string) ([]Release, error) {
	var releases []Release
	err := c.get(ctx, "/repos/"+slug+"/releases", &releases)
	return releases, err
}

type Release struct {
	URL             string  `json:"url"`
	TagName         string  `json:"tag_name"`
	TargetCommitish string  `json:"target_commitish"` // The branch of the release
	Name            string  `json:"name"`
	Draft           bool    `json:"draft"`
	Prerelease      bool    `json:"prerelease"`
	CreatedAt       string  `json:"created_at"`
	Assets          []Asset `json:"assets"`
}

type Asset struct {
	URL                string    `json:"url"`
	Name               string    `json:"name"`
	Size               int64     `json:"size"`
	UpdatedAt          time.Time `json:"updated_at"`
	BrowserDownloadURL string    `json:"browser_download_url"`
	// Digest is "sha256:<hex>" on assets uploaded since GitHub started recording them
	Digest string `json:"digest"`
}

type Repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
}

// digest splits an asset's digest into its hash type and value
func (a Asset) digest() (string, string) {
	hashType, value, ok := strings.Cut(a.Digest, ":")
	if !ok {
		return "", ""
	}
	if _, err := core.GetHashImpl(hashType); err != nil {
		return "", ""
	}
	return hashType, value
}

var slugRegex = regexp.MustCompile(`^(?:https?://github\.com/)?([\w.-]+/[\w.-]+?)(?:\.git)?(?:/releases(?:/tag/([^/]+))?)?/?$`)

// parseSlug accepts owner/repo, or a repository or release URL
func parseSlug(input string) (slug string, tag string, ok bool) {
	m := slugRegex.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// findRelease picks the release with the given tag, otherwise the newest non-draft release on the branch (any
// branch if empty). Prereleases are only used if there is nothing else.
func findRelease(releases []Release, tag string, branch string) (Release, error) {
	var prerelease *Release
	for i, r := range releases {
		if r.Draft {
			continue
		}
		if tag != "" {
			if r.TagName == tag {
				return r, nil
			}
			continue
		}
		if branch != "" && r.TargetCommitish != branch {
			continue
		}
		if r.Prerelease {
			if prerelease == nil {
				prerelease = &releases[i]
			}
			continue
		}
		return r, nil
	}
	if tag == "" && prerelease != nil {
		return *prerelease, nil
	}
	if tag != "" {
		return Release{}, fmt.Errorf("no release tagged %s", tag)
	}
	return Release{}, fmt.Errorf("no releases found")
}

// findAsset picks the release asset matching the regex. A nil regex prefers the jar that isn't a sources or dev jar.
func findAsset(release Release, expr *regexp2.Regexp) (Asset, error) {
	if len(release.Assets) == 0 {
		return Asset{}, fmt.Errorf("release %s doesn't have any assets", release.TagName)
	}
	var matching []Asset
	for _, v := range release.Assets {
		if expr != nil {
			if ok, _ := expr.MatchString(v.Name); ok {
				matching = append(matching, v)
			}
			continue
		}
		if strings.HasSuffix(v.Name, ".jar") && !strings.HasSuffix(v.Name, "-sources.jar") && !strings.HasSuffix(v.Name, "-dev.jar") {
			matching = append(matching, v)
		}
	}
	switch {
	case len(matching) == 1:
		return matching[0], nil
	case expr == nil && len(matching) > 1:
		return matching[0], nil
	case len(matching) == 0 && expr == nil:
		return release.Assets[0], nil
	case len(matching) == 0:
		return Asset{}, fmt.Errorf("release %s doesn't have any assets matching %s", release.TagName, expr.String())
	}
	names := make([]string, len(matching))
	for i, v := range matching {
		names[i] = v.Name
	}
	return Asset{}, fmt.Errorf("release %s has more than one asset matching: %s", release.TagName, strings.Join(names, ", "))
}
