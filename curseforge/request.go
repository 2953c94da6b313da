package curseforge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/packlaunch/packlaunch/core"
	"github.com/spf13/viper"
)

const apiURL = "https://api.curseforge.com"

// ErrNoAPIKey is returned when curseforge.api-key is not configured
var ErrNoAPIKey = errors.New("no CurseForge API key configured; set curseforge.api-key in the config file or PACKLAUNCH_CURSEFORGE_API_KEY")

type apiClient struct {
	r *resty.Client
}

func newAPIClient() *apiClient {
	r := resty.New().
		SetBaseURL(apiURL).
		SetHeader("User-Agent", core.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetTimeout(30 * time.Second)
	return &apiClient{r: r}
}

var api = newAPIClient()

// call sends a request to the CurseForge API and unwraps the data field of its response. body is sent as JSON
// when it is not nil.
func call[T any](ctx context.Context, c *apiClient, method string, endpoint string, body interface{}) (T, error) {
	var res struct {
		Data T `json:"data"`
	}
	key := viper.GetString("curseforge.api-key")
	if key == "" {
		return res.Data, ErrNoAPIKey
	}
	req := c.r.R().SetContext(ctx).SetHeader("X-API-Key", key)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return res.Data, err
	}
	if resp.IsError() {
		return res.Data, fmt.Errorf("invalid response status: %v", resp.Status())
	}
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return res.Data, fmt.Errorf("invalid response from %s: %w", endpoint, err)
	}
	return res.Data, nil
}

type fileType uint8

const (
	fileTypeRelease fileType = iota + 1
	fileTypeBeta
	fileTypeAlpha
)

type dependencyType uint8

const (
	dependencyTypeEmbedded dependencyType = iota + 1
	dependencyTypeOptional
	dependencyTypeRequired
	dependencyTypeTool
	dependencyTypeIncompatible
	dependencyTypeInclude
)

type hashAlgo uint8

const (
	hashAlgoSHA1 hashAlgo = iota + 1
	hashAlgoMD5
)

// The CurseForge game and class IDs the launcher knows how to install
const (
	gameMinecraft      = 432
	classBukkitPlugins = 5
	classMods          = 6
	classResourcePacks = 12
	classModpacks      = 4471
	classShaderPacks   = 6552
)

// modInfo is a subset of the deserialised JSON response from the Curse API for mods (addons)
type modInfo struct {
	Name                   string        `json:"name"`
	Summary                string        `json:"summary"`
	Slug                   string        `json:"slug"`
	ID                     uint32        `json:"id"`
	GameID                 uint32        `json:"gameId"`
	ClassID                uint32        `json:"classId"`
	LatestFiles            []modFileInfo `json:"latestFiles"`
	GameVersionLatestFiles []struct {
		GameVersion string   `json:"gameVersion"`
		ID          uint32   `json:"fileId"`
		Name        string   `json:"filename"`
		FileType    fileType `json:"releaseType"`
	} `json:"latestFilesIndexes"`
	Links struct {
		WebsiteURL string `json:"websiteUrl"`
	} `json:"links"`
}

// modFileInfo is a subset of the deserialised JSON response from the Curse API for mod files
type modFileInfo struct {
	ID           uint32    `json:"id"`
	ModID        uint32    `json:"modId"`
	FileName     string    `json:"fileName"`
	FriendlyName string    `json:"displayName"`
	Date         time.Time `json:"fileDate"`
	Length       uint64    `json:"fileLength"`
	FileType     fileType  `json:"releaseType"`
	// According to the CurseForge API T&Cs, this must not be saved or cached
	DownloadURL  string   `json:"downloadUrl"`
	GameVersions []string `json:"gameVersions"`
	Fingerprint  uint32   `json:"fileFingerprint"`
	Dependencies []struct {
		ModID uint32         `json:"modId"`
		Type  dependencyType `json:"relationType"`
	} `json:"dependencies"`

	Hashes []struct {
		Value     string   `json:"value"`
		Algorithm hashAlgo `json:"algo"`
	} `json:"hashes"`
}

// getBestHash prefers SHA-1, then MD5, falling back to the murmur2 fingerprint. Both are empty when the file has
// no usable hash at all.
func (i modFileInfo) getBestHash() (hash string, hashFormat string) {
	var md5 string
	for _, v := range i.Hashes {
		switch v.Algorithm {
		case hashAlgoSHA1:
			return v.Value, "sha1"
		case hashAlgoMD5:
			md5 = v.Value
		}
	}
	if md5 != "" {
		return md5, "md5"
	}
	if i.Fingerprint == 0 {
		return "", ""
	}
	return strconv.FormatUint(uint64(i.Fingerprint), 10), "murmur2"
}

func (c *apiClient) getModInfo(ctx context.Context, modID uint32) (modInfo, error) {
	info, err := call[modInfo](ctx, c, resty.MethodGet, "/v1/mods/"+strconv.FormatUint(uint64(modID), 10), nil)
	if err != nil {
		return info, fmt.Errorf("failed to request project data for ID %d: %w", modID, err)
	}
	if info.ID != modID {
		return info, fmt.Errorf("unexpected project ID in CurseForge response: %d (expected %d)", info.ID, modID)
	}
	return info, nil
}

func (c *apiClient) getModInfoMultiple(ctx context.Context, modIDs []uint32) ([]modInfo, error) {
	infos, err := call[[]modInfo](ctx, c, resty.MethodPost, "/v1/mods", map[string][]uint32{"modIds": modIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to request project data: %w", err)
	}
	return infos, nil
}

func (c *apiClient) getFileInfo(ctx context.Context, modID uint32, fileID uint32) (modFileInfo, error) {
	endpoint := fmt.Sprintf("/v1/mods/%d/files/%d", modID, fileID)
	info, err := call[modFileInfo](ctx, c, resty.MethodGet, endpoint, nil)
	if err != nil {
		return info, fmt.Errorf("failed to request file data for project ID %d, file ID %d: %w", modID, fileID, err)
	}
	if info.ID != fileID {
		return info, fmt.Errorf("unexpected file ID for project %d in CurseForge response: %d (expected %d)", modID, info.ID, fileID)
	}
	return info, nil
}

func (c *apiClient) getFileInfoMultiple(ctx context.Context, fileIDs []uint32) ([]modFileInfo, error) {
	infos, err := call[[]modFileInfo](ctx, c, resty.MethodPost, "/v1/mods/files", map[string][]uint32{"fileIds": fileIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to request file data: %w", err)
	}
	return infos, nil
}

// getSearch looks projects up by slug when one is given, otherwise by search term and game version
func (c *apiClient) getSearch(ctx context.Context, searchTerm string, slug string, gameVersion string) ([]modInfo, error) {
	q := url.Values{}
	q.Set("gameId", strconv.Itoa(gameMinecraft))
	q.Set("pageSize", "10")
	switch {
	case slug != "":
		q.Set("slug", slug)
	default:
		if searchTerm != "" {
			q.Set("searchFilter", searchTerm)
		}
		if gameVersion != "" {
			q.Set("gameVersion", gameVersion)
		}
	}
	results, err := call[[]modInfo](ctx, c, resty.MethodGet, "/v1/mods/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve search results: %w", err)
	}
	return results, nil
}

type fingerprintMatches struct {
	ExactMatches []struct {
		ID          uint32        `json:"id"`
		File        modFileInfo   `json:"file"`
		LatestFiles []modFileInfo `json:"latestFiles"`
	} `json:"exactMatches"`
	ExactFingerprints     []uint32 `json:"exactFingerprints"`
	PartialMatches        []uint32 `json:"partialMatches"`
	UnmatchedFingerprints []uint32 `json:"unmatchedFingerprints"`
}

func (c *apiClient) getFingerprintInfo(ctx context.Context, hashes []uint32) (fingerprintMatches, error) {
	endpoint := "/v1/fingerprints/" + strconv.Itoa(gameMinecraft)
	res, err := call[fingerprintMatches](ctx, c, resty.MethodPost, endpoint, map[string][]uint32{"fingerprints": hashes})
	if err != nil {
		return res, fmt.Errorf("failed to retrieve fingerprint results: %w", err)
	}
	return res, nil
}
