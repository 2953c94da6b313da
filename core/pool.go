package core

import (
	"context"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when download.workers is not configured
const DefaultWorkers = 4

type CompletedDownload struct {
	Download *Downloadable
	// Error indicates if/why downloading this file failed
	Error error
}

// DownloadPool runs a set of downloads with bounded concurrency. The first failure cancels the rest.
type DownloadPool struct {
	downloads []*Downloadable
}

func NewDownloadPool(downloads ...*Downloadable) *DownloadPool {
	return &DownloadPool{downloads: downloads}
}

func (p *DownloadPool) Add(downloads ...*Downloadable) {
	p.downloads = append(p.downloads, downloads...)
}

func (p *DownloadPool) Len() int {
	return len(p.downloads)
}

// TotalSize is the sum of the known sizes of all downloads, for progress reporting
func (p *DownloadPool) TotalSize() int64 {
	var total int64
	for _, d := range p.downloads {
		total += d.Size
	}
	return total
}

// ConfiguredWorkers returns download.workers, or DefaultWorkers
func ConfiguredWorkers() int {
	if w := viper.GetInt("download.workers"); w > 0 {
		return w
	}
	return DefaultWorkers
}

// StartDownloads begins downloading with the given number of workers. Every download produces exactly one
// CompletedDownload; the channel is closed once all have finished, and must be drained.
func (p *DownloadPool) StartDownloads(ctx context.Context, workers int) chan CompletedDownload {
	if workers < 1 {
		workers = 1
	}
	results := make(chan CompletedDownload)
	go func() {
		defer close(results)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, d := range p.downloads {
			d := d
			g.Go(func() error {
				err := d.Download(gctx)
				results <- CompletedDownload{Download: d, Error: err}
				return err
			})
		}
		_ = g.Wait()
	}()
	return results
}

// Run downloads everything and returns the first error encountered
func (p *DownloadPool) Run(ctx context.Context, workers int) error {
	var firstErr error
	for dl := range p.StartDownloads(ctx, workers) {
		if dl.Error != nil && firstErr == nil {
			firstErr = dl.Error
		}
	}
	return firstErr
}
