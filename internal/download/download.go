// Package download fetches depot content over HTTP, publishing a
// progress snapshot after every received chunk.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/logging"
	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/progress"
	"github.com/shirou/gopsutil/v3/disk"
)

var log = logging.L("download")

const (
	// DefaultChunkSize is the read-buffer size per progress report.
	DefaultChunkSize = 1 * 1024 * 1024

	// DefaultTimeout bounds a whole transfer.
	DefaultTimeout = 5 * time.Minute
)

// Reporter receives progress snapshots. *progress.Reporter satisfies
// it; tests substitute a recorder.
type Reporter interface {
	Report(downloaded, total uint64)
	ReportState(state progress.State, percent uint8, downloaded, total uint64)
}

// Config holds downloader configuration.
type Config struct {
	ChunkSize int
	Timeout   time.Duration
	UserAgent string
}

// Downloader fetches URLs to local files.
type Downloader struct {
	config   *Config
	client   *http.Client
	reporter Reporter
}

// New creates a Downloader publishing to the given reporter. A nil
// config uses the defaults.
func New(cfg *Config, reporter Reporter) *Downloader {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Downloader{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		reporter: reporter,
	}
}

// Get downloads url to dest, reporting after every chunk. A server
// that does not announce a Content-Length gets Indeterminate-state
// reports instead of derived percentages. On failure one Error-state
// snapshot is published before the error is returned.
func (d *Downloader) Get(ctx context.Context, url, dest string) error {
	cleanPath := filepath.Clean(dest)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid destination path: directory traversal not allowed")
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.reporter.ReportState(progress.StateError, 0, 0, 0)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.reporter.ReportState(progress.StateError, 0, 0, 0)
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	var total uint64
	if resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
		if err := d.ensureDiskSpace(dir, total); err != nil {
			d.reporter.ReportState(progress.StateError, 0, 0, total)
			return err
		}
	}

	file, err := os.Create(dest)
	if err != nil {
		d.reporter.ReportState(progress.StateError, 0, 0, total)
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	log.Info("downloading", "url", url, "dest", dest, "totalBytes", total)

	var downloaded uint64
	buffer := make([]byte, d.config.ChunkSize)
	for {
		n, err := resp.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := file.Write(buffer[:n]); writeErr != nil {
				d.reporter.ReportState(progress.StateError, percentOf(downloaded, total), downloaded, total)
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
			downloaded += uint64(n)
			if total > 0 {
				d.reporter.Report(downloaded, total)
			} else {
				d.reporter.ReportState(progress.StateIndeterminate, 0, downloaded, 0)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			d.reporter.ReportState(progress.StateError, percentOf(downloaded, total), downloaded, total)
			return fmt.Errorf("failed to read response: %w", err)
		}
	}

	// Publish the final snapshot, then clear the taskbar indicator.
	// Hidden only blanks the terminal state; the file keeps the
	// completed percentage for pollers.
	if total == 0 {
		total = downloaded
	}
	d.reporter.Report(downloaded, total)
	d.reporter.ReportState(progress.StateHidden, percentOf(downloaded, total), downloaded, total)

	log.Info("download complete", "dest", dest, "bytes", downloaded)
	return nil
}

// ensureDiskSpace rejects transfers that cannot fit on the destination
// filesystem. A failing probe is not fatal; the transfer proceeds.
func (d *Downloader) ensureDiskSpace(dir string, need uint64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		log.Debug("disk space probe failed", "dir", dir, "error", err)
		return nil
	}
	if usage.Free < need {
		return fmt.Errorf("insufficient disk space: need %d bytes, %d free", need, usage.Free)
	}
	return nil
}

func percentOf(downloaded, total uint64) uint8 {
	if total == 0 {
		return 0
	}
	p := downloaded * 100 / total
	if p > 100 {
		p = 100
	}
	return uint8(p)
}
