/*
Package fetch downloads disclosure PDFs concurrently, naming each file so
the scrip code can be recovered from the filename alone.
*/
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Task is one PDF to acquire.
type Task struct {
	ScripCode string
	URL       string
}

// Valid reports whether a task is downloadable: a non-empty scrip code and
// an http(s) URL.
func (t Task) Valid() bool {
	return strings.TrimSpace(t.ScripCode) != "" &&
		(strings.HasPrefix(t.URL, "http://") || strings.HasPrefix(t.URL, "https://"))
}

// Result is one task's outcome. Err is set on HTTP, network or timeout
// failure; a failed task never cancels its siblings.
type Result struct {
	ScripCode string
	URL       string
	Path      string
	Err       error
}

// Config tunes the pool. The worker heuristic scales with batch size between
// MinWorkers and MaxWorkers; the long timeout tolerates slow filing hosts.
type Config struct {
	MinWorkers int
	MaxWorkers int
	Timeout    time.Duration
	UserAgent  string
	Referer    string
}

func (c Config) withDefaults() Config {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 5
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 20
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"
	}
	return c
}

// Workers returns the pool size for n tasks: one worker per four tasks,
// clamped to the configured floor and cap.
func (c Config) Workers(n int) int {
	w := n / 4
	if w < c.MinWorkers {
		w = c.MinWorkers
	}
	if w > c.MaxWorkers {
		w = c.MaxWorkers
	}
	return w
}

type Downloader struct {
	cfg    Config
	client *http.Client
}

func NewDownloader(cfg Config) *Downloader {
	cfg = cfg.withDefaults()
	return &Downloader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// DownloadAll streams every task's URL into dir. Results are collected in
// completion order, one per task, with per-task failures captured rather
// than propagated.
func (d *Downloader) DownloadAll(ctx context.Context, dir string, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		results := make([]Result, len(tasks))
		for i, t := range tasks {
			results[i] = Result{ScripCode: t.ScripCode, URL: t.URL, Err: fmt.Errorf("create download dir: %w", err)}
		}
		return results
	}

	workers := d.cfg.Workers(len(tasks))
	log.Printf("fetch: downloading %d PDFs with %d workers", len(tasks), workers)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	out := make(chan Result, len(tasks))

	for _, t := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			out <- d.downloadOne(ctx, dir, t)
		}(t)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]Result, 0, len(tasks))
	done := 0
	for res := range out {
		done++
		if res.Err != nil {
			log.Printf("fetch %d/%d: FAIL %s (%v)", done, len(tasks), res.URL, res.Err)
		} else {
			log.Printf("fetch %d/%d: %s", done, len(tasks), res.Path)
		}
		results = append(results, res)
	}
	return results
}

func (d *Downloader) downloadOne(ctx context.Context, dir string, t Task) Result {
	res := Result{ScripCode: t.ScripCode, URL: t.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("build request for %s: %w", t.URL, err)
		return res
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	if d.cfg.Referer != "" {
		req.Header.Set("Referer", d.cfg.Referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("fetch %s: %w", t.URL, err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("fetch %s: status %d", t.URL, resp.StatusCode)
		return res
	}

	path := filepath.Join(dir, Filename(t.ScripCode, t.URL))
	f, err := os.Create(path)
	if err != nil {
		res.Err = fmt.Errorf("create %s: %w", path, err)
		return res
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		res.Err = fmt.Errorf("write %s: %w", path, err)
		return res
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		res.Err = fmt.Errorf("close %s: %w", path, err)
		return res
	}
	res.Path = path
	return res
}
