package core

import (
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// MaxAttempts is the number of times a file is fetched from a single server before moving on to the next one
const MaxAttempts = 3

// ErrAllMirrorsFailed is returned when no server could provide a file that passed verification
var ErrAllMirrorsFailed = errors.New("download failed on every server")

var errNotModified = errors.New("not modified")

// An ETag is only usable as a digest when it looks like a bare MD5
var etagHashPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

// Downloadable is a single file to be fetched and verified
type Downloadable struct {
	// Name is used in logs and progress output; defaults to the file name of Path
	Name string
	// URL is absolute, or a path relative to each server when FromServer is set
	URL  string
	Path string
	// Hash is the expected digest. If HashType is empty it is inferred from the digest length.
	// "-" disables verification.
	Hash     string
	HashType string
	Size     int64

	FromServer bool
	Servers    []Server

	// UsesPackXz fetches URL.pack.xz and unpacks it into Path
	UsesPackXz bool
	// Checksums are the accepted SHA-1s of a pack.xz file's checksum block
	Checksums []string

	// CopyTo receives a copy of the file once verified, when its own digest differs
	CopyTo string
	// UnzipTo receives the extracted contents of the file once verified
	UnzipTo string

	// TrackETag keeps a <Path>.hash sidecar so unchanged files can be revalidated with If-None-Match
	TrackETag bool

	Client *http.Client
}

func (d *Downloadable) displayName() string {
	if d.Name != "" {
		return d.Name
	}
	return filepath.Base(d.Path)
}

func (d *Downloadable) hashType() string {
	if d.HashType != "" {
		return d.HashType
	}
	return HashTypeFor(d.Hash)
}

func (d *Downloadable) verifies() bool {
	return d.Hash != "" && d.Hash != "-"
}

func (d *Downloadable) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

// downloadPath is where the raw response body is written; pack.xz files are unpacked from there into Path
func (d *Downloadable) downloadPath() string {
	if d.UsesPackXz {
		return d.Path + ".pack.xz"
	}
	return d.Path
}

// URLs returns every URL the file may be fetched from, in failover order
func (d *Downloadable) URLs() []string {
	suffix := ""
	if d.UsesPackXz {
		suffix = ".pack.xz"
	}
	if !d.FromServer {
		return []string{d.URL + suffix}
	}
	servers := d.Servers
	if servers == nil {
		servers = GetServers()
	}
	urls := make([]string, 0, len(servers))
	for _, s := range servers {
		urls = append(urls, s.FileURL(d.URL)+suffix)
	}
	return urls
}

// NeedToDownload reports whether Path is missing or does not match the expected digest.
// Without a digest, a matching size is taken as proof the file is current.
func (d *Downloadable) NeedToDownload() (bool, error) {
	if d.UsesPackXz {
		return d.needPackXz()
	}
	info, err := os.Stat(d.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	if !d.verifies() {
		if d.Size > 0 {
			return info.Size() != d.Size, nil
		}
		return true, nil
	}
	actual, err := HashFile(d.Path, d.hashType())
	if err != nil {
		return false, err
	}
	return !HashMatches(actual, d.Hash), nil
}

func (d *Downloadable) needPackXz() (bool, error) {
	if !FileExists(d.Path) {
		return true, nil
	}
	if len(d.Checksums) == 0 {
		return false, nil
	}
	data, err := ReadZipEntry(d.Path, PackXzChecksumsEntry)
	if err != nil {
		// Not a jar we unpacked; fetch it again
		return true, nil
	}
	sum := sha1.Sum(data)
	return !containsFold(d.Checksums, hex.EncodeToString(sum[:])), nil
}

// Download fetches the file if needed, trying each server up to MaxAttempts times. Any previous file at Path
// is kept as Path.bak until the new file is verified, and restored if every attempt fails.
func (d *Downloadable) Download(ctx context.Context) error {
	need, err := d.NeedToDownload()
	if err != nil {
		return fmt.Errorf("failed to check existing file %s: %w", d.Path, err)
	}
	if !need {
		Log.Debug("File already up to date", zap.String("file", d.Path))
		return d.postProcess()
	}

	if err := os.MkdirAll(filepath.Dir(d.Path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", d.Path, err)
	}

	var etag string
	var sidecar hashSidecar
	if d.TrackETag && FileExists(d.Path) {
		if sc, ok := loadSidecar(d.Path); ok {
			sidecar = sc
			etag = sc.ETag
		}
	}

	backupPath := d.Path + ".bak"
	hasBackup := false
	if FileExists(d.Path) {
		if err := os.Rename(d.Path, backupPath); err != nil {
			return fmt.Errorf("failed to back up %s: %w", d.Path, err)
		}
		hasBackup = true
	}

	var lastErr error
	for _, u := range d.URLs() {
		for attempt := 1; attempt <= MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				d.restoreBackup(hasBackup)
				return err
			}
			Log.Debug("Downloading", zap.String("url", u), zap.String("file", d.Path), zap.Int("attempt", attempt))
			lastErr = d.fetch(ctx, u, etag)
			if errors.Is(lastErr, errNotModified) {
				if hasBackup && sidecar.matches(backupPath) {
					Log.Debug("File not modified on server", zap.String("file", d.Path))
					d.restoreBackup(true)
					return d.postProcess()
				}
				// Our copy no longer matches what we recorded, so ask for the whole file
				etag = ""
				lastErr = fmt.Errorf("server reported %s as not modified, but the local copy has changed", d.displayName())
				continue
			}
			if lastErr == nil {
				if hasBackup {
					_ = os.Remove(backupPath)
				}
				return d.postProcess()
			}
			if err := ctx.Err(); err != nil {
				_ = RemoveIfExists(d.downloadPath())
				d.restoreBackup(hasBackup)
				return err
			}
			Log.Warn("Download attempt failed", zap.String("file", d.displayName()), zap.String("url", u),
				zap.Int("attempt", attempt), zap.Error(lastErr))
		}
		Log.Warn("Server not available, trying the next one", zap.String("url", u))
	}

	d.keepFailed()
	d.restoreBackup(hasBackup)
	return fmt.Errorf("%w: %s: %w", ErrAllMirrorsFailed, d.displayName(), lastErr)
}

func (d *Downloadable) fetch(ctx context.Context, u string, etag string) error {
	target := d.downloadPath()
	if err := RemoveIfExists(target); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Cache-Control", "no-store,max-age=0")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return errNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("invalid response status: %v", resp.Status)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") && !strings.HasSuffix(strings.ToLower(d.Path), ".html") {
		Log.Warn("Received a web page instead of a file; a proxy, captive portal or antivirus may be interfering",
			zap.String("url", u))
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to decode gzip response: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	expected, hashType := d.Hash, d.hashType()
	if !d.verifies() && expected != "-" {
		if etagHash := hashFromETag(resp.Header.Get("ETag")); etagHash != "" {
			expected, hashType = etagHash, "md5"
		}
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	writers := []io.Writer{f}
	var h hash.Hash
	if expected != "" && expected != "-" {
		h, err = GetHashImpl(hashType)
		if err != nil {
			_ = f.Close()
			return err
		}
		writers = append(writers, h)
	}
	n, err := io.Copy(io.MultiWriter(writers...), body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	if h != nil {
		actual := EncodeHash(hashType, h)
		if !HashMatches(actual, expected) {
			return fmt.Errorf("%w: expected %s %s for %s but got %s", ErrHashMismatch, hashType, expected, d.displayName(), actual)
		}
	} else if d.Size > 0 && n != d.Size {
		return fmt.Errorf("%w: expected %d bytes for %s but got %d", ErrHashMismatch, d.Size, d.displayName(), n)
	}

	if d.UsesPackXz {
		checksums, err := UnpackXZ(target, d.Path)
		_ = os.Remove(target)
		if err != nil {
			return err
		}
		if len(d.Checksums) > 0 {
			sum := sha1.Sum(checksums)
			if !containsFold(d.Checksums, hex.EncodeToString(sum[:])) {
				_ = os.Remove(d.Path)
				return fmt.Errorf("%w: checksums of %s are not in the accepted list", ErrHashMismatch, d.displayName())
			}
		}
	}

	if d.TrackETag {
		sum, err := HashFile(d.Path, "sha1")
		if err != nil {
			return err
		}
		if err := saveSidecar(d.Path, hashSidecar{SHA1: sum, ETag: resp.Header.Get("ETag")}); err != nil {
			Log.Warn("Failed to save hash sidecar", zap.String("file", d.Path), zap.Error(err))
		}
	}
	return nil
}

// keepFailed moves the last bad copy into the failed downloads folder so it can be inspected
func (d *Downloadable) keepFailed() {
	target := d.downloadPath()
	if !FileExists(target) {
		return
	}
	failedDir, err := GetFailedDownloadsDir()
	if err == nil {
		err = CopyFileToDir(target, failedDir)
	}
	if err != nil {
		Log.Error("Failed to copy failed download", zap.String("file", target), zap.Error(err))
	} else {
		Log.Error("Failed to download file from all servers, copied to the failed downloads folder",
			zap.String("file", d.displayName()), zap.String("folder", failedDir))
	}
	_ = os.Remove(target)
}

func (d *Downloadable) restoreBackup(hasBackup bool) {
	if !hasBackup {
		return
	}
	if err := os.Rename(d.Path+".bak", d.Path); err != nil {
		Log.Error("Failed to restore backup", zap.String("file", d.Path), zap.Error(err))
	}
}

func (d *Downloadable) postProcess() error {
	if d.CopyTo != "" {
		copyNeeded := true
		if d.verifies() && FileExists(d.CopyTo) {
			if actual, err := HashFile(d.CopyTo, d.hashType()); err == nil && HashMatches(actual, d.Hash) {
				copyNeeded = false
			}
		}
		if copyNeeded {
			if err := CopyFile(d.Path, d.CopyTo); err != nil {
				return fmt.Errorf("failed to copy %s to %s: %w", d.Path, d.CopyTo, err)
			}
		}
	}
	if d.UnzipTo != "" {
		if err := Unzip(d.Path, d.UnzipTo); err != nil {
			return err
		}
	}
	return nil
}

func hashFromETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, "\"")
	if etagHashPattern.MatchString(etag) {
		return etag
	}
	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
