package minecraft

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/packlaunch/packlaunch/core"
)

const (
	manifestURL  = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	resourcesURL = "https://resources.download.minecraft.net"
	librariesURL = "https://libraries.minecraft.net/"
)

// Client fetches Mojang's launcher metadata
type Client struct {
	r *resty.Client
}

func NewClient() *Client {
	r := resty.New().
		SetHeader("User-Agent", core.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetTimeout(30 * time.Second)
	return &Client{r: r}
}

// DefaultClient is shared by the installer and commands
var DefaultClient = NewClient()

// Resty exposes the underlying client, mainly so tests can mock its transport
func (c *Client) Resty() *resty.Client {
	return c.r
}

type VersionManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

type ManifestVersion struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	SHA1        string    `json:"sha1"`
	Time        time.Time `json:"time"`
	ReleaseTime time.Time `json:"releaseTime"`
}

// Find returns the manifest entry for the given version id
func (m VersionManifest) Find(id string) (ManifestVersion, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return ManifestVersion{}, false
}

func (c *Client) get(ctx context.Context, url string, result interface{}) error {
	resp, err := c.r.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(result).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("invalid response status for %s: %v", url, resp.Status())
	}
	return nil
}

// GetManifest returns every known Minecraft version, sorted from oldest to newest release
func (c *Client) GetManifest(ctx context.Context) (VersionManifest, error) {
	var out VersionManifest
	if err := c.get(ctx, manifestURL, &out); err != nil {
		return VersionManifest{}, err
	}
	sort.SliceStable(out.Versions, func(i, j int) bool {
		return out.Versions[i].ReleaseTime.Before(out.Versions[j].ReleaseTime)
	})
	return out, nil
}

// GetVersion fetches the version JSON for a manifest entry
func (c *Client) GetVersion(ctx context.Context, mv ManifestVersion) (*Version, error) {
	var v Version
	if err := c.get(ctx, mv.URL, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ResolveVersion looks up a version id in the manifest and fetches its version JSON
func (c *Client) ResolveVersion(ctx context.Context, id string) (*Version, error) {
	manifest, err := c.GetManifest(ctx)
	if err != nil {
		return nil, err
	}
	mv, ok := manifest.Find(id)
	if !ok {
		return nil, fmt.Errorf("%s is not a valid Minecraft version", id)
	}
	return c.GetVersion(ctx, mv)
}

// GetAssetIndex fetches the asset index referenced by a version
func (c *Client) GetAssetIndex(ctx context.Context, ref AssetIndexRef) (*AssetIndex, error) {
	var idx AssetIndex
	if err := c.get(ctx, ref.URL, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}
