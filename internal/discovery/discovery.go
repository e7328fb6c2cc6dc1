/*
Package discovery fetches the exchange's corporate-announcement feed for a
date and narrows it to the screenable candidates: mid-cap scrips filing
after the cut-off time, with a PDF attachment.
*/
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultFeedURL        = "https://api.bseindia.com/BseIndiaAPI/api/AnnSubCategoryGetData/w"
	DefaultAttachmentBase = "https://www.bseindia.com/xml-data/corpfiling/AttachLive/"
)

// Announcement is one candidate disclosure handed to the pipeline.
type Announcement struct {
	NewsID        string
	ScripCode     string
	Headline      string
	Category      string
	AttachmentURL string
	SubmittedAt   time.Time
	MarketCap     float64
	IsNewEntry    bool
}

type Config struct {
	FeedURL        string
	AttachmentBase string
	UserAgent      string
	Referer        string
	RowsPerPage    int
	PageWorkers    int
	Timeout        time.Duration

	MarketCapCSV string
	MarketCapMin float64
	MarketCapMax float64
	CutoffTime   string // "HH:MM:SS", submissions at or before this are dropped
}

func (c Config) withDefaults() Config {
	if c.RowsPerPage <= 0 {
		c.RowsPerPage = 50
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.CutoffTime == "" {
		c.CutoffTime = "20:30:00"
	}
	if c.MarketCapMin <= 0 {
		c.MarketCapMin = 2500
	}
	if c.MarketCapMax <= 0 {
		c.MarketCapMax = 25000
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"
	}
	return c
}

type Client struct {
	cfg    Config
	client *http.Client
	caps   map[string]float64
}

func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.FeedURL) == "" {
		return nil, fmt.Errorf("feed URL not configured")
	}
	caps, err := loadMarketCaps(cfg.MarketCapCSV)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		caps:   caps,
	}, nil
}

// feed JSON shape: Table carries the rows, Table1 the total row count.
type feedRow struct {
	NewsID         string      `json:"NEWSID"`
	ScripCode      json.Number `json:"SCRIP_CD"`
	Headline       string      `json:"HEADLINE"`
	Category       string      `json:"CATEGORYNAME"`
	AttachmentName string      `json:"ATTACHMENTNAME"`
	SubmittedAt    string      `json:"News_submission_dt"`
}

type feedPage struct {
	Table  []feedRow `json:"Table"`
	Table1 []struct {
		RowCount json.Number `json:"ROWCNT"`
	} `json:"Table1"`
}

// Overrides narrows one discovery call without reconfiguring the client.
// Zero values fall back to the configured defaults.
type Overrides struct {
	CutoffTime   string
	MarketCapMin float64
	MarketCapMax float64
}

// Discover fetches every feed page for the date concurrently, then applies
// the market-cap band, the cut-off time and the attachment requirement.
// IsNewEntry is left unset; the pipeline marks it against its local state.
func (c *Client) Discover(ctx context.Context, date time.Time, ov Overrides) ([]Announcement, error) {
	first, err := c.fetchPage(ctx, date, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch announcement feed: %w", err)
	}
	if len(first.Table1) == 0 {
		return nil, nil
	}
	total, _ := first.Table1[0].RowCount.Int64()
	if total == 0 {
		return nil, nil
	}
	pages := int((total + int64(c.cfg.RowsPerPage) - 1) / int64(c.cfg.RowsPerPage))
	log.Printf("discovery: %d announcements across %d pages", total, pages)

	rows := make([][]feedRow, pages)
	rows[0] = first.Table

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.cfg.PageWorkers)
	for p := 2; p <= pages; p++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(p int) {
			defer wg.Done()
			defer func() { <-sem }()
			page, err := c.fetchPage(ctx, date, p)
			if err != nil {
				log.Printf("discovery: page %d failed: %v", p, err)
				return
			}
			rows[p-1] = page.Table
		}(p)
	}
	wg.Wait()

	var all []feedRow
	for _, page := range rows {
		all = append(all, page...)
	}
	return c.filter(date, all, ov), nil
}

func (c *Client) fetchPage(ctx context.Context, date time.Time, page int) (feedPage, error) {
	var out feedPage

	q := url.Values{}
	q.Set("pageno", fmt.Sprintf("%d", page))
	q.Set("strPrevDate", date.Format("20060102"))
	q.Set("strToDate", date.Format("20060102"))
	q.Set("strCat", "-1")
	q.Set("strType", "C")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.FeedURL+"?"+q.Encode(), nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("feed page %d: status %d", page, resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(blob, &out); err != nil {
		return out, fmt.Errorf("decode feed page %d: %w", page, err)
	}
	return out, nil
}

func (c *Client) filter(date time.Time, rows []feedRow, ov Overrides) []Announcement {
	cutoffTime := c.cfg.CutoffTime
	if ov.CutoffTime != "" {
		cutoffTime = ov.CutoffTime
	}
	capMin, capMax := c.cfg.MarketCapMin, c.cfg.MarketCapMax
	if ov.MarketCapMin > 0 {
		capMin = ov.MarketCapMin
	}
	if ov.MarketCapMax > 0 {
		capMax = ov.MarketCapMax
	}

	cutoff, err := time.ParseInLocation("2006-01-02 15:04:05",
		date.Format("2006-01-02")+" "+cutoffTime, date.Location())
	if err != nil {
		log.Printf("discovery: bad cutoff %q, using start of day", cutoffTime)
		cutoff = date.Truncate(24 * time.Hour)
	}

	var anns []Announcement
	for _, row := range rows {
		scrip := row.ScripCode.String()
		if scrip == "" || strings.TrimSpace(row.AttachmentName) == "" {
			continue
		}
		cap, ok := c.caps[scrip]
		if len(c.caps) > 0 && (!ok || cap < capMin || cap > capMax) {
			continue
		}
		submitted, err := parseSubmissionTime(row.SubmittedAt, date.Location())
		if err != nil || !submitted.After(cutoff) {
			continue
		}
		anns = append(anns, Announcement{
			NewsID:        row.NewsID,
			ScripCode:     scrip,
			Headline:      row.Headline,
			Category:      row.Category,
			AttachmentURL: c.cfg.AttachmentBase + strings.TrimSpace(row.AttachmentName),
			SubmittedAt:   submitted,
			MarketCap:     cap,
		})
	}
	sort.SliceStable(anns, func(i, j int) bool { return anns[i].SubmittedAt.Before(anns[j].SubmittedAt) })
	log.Printf("discovery: %d candidates after filters", len(anns))
	return anns
}

func parseSubmissionTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05.999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized submission time %q", s)
}

// MarkNew flags announcements whose scrip has no disclosure on disk yet.
// Re-appearing scrips keep isNewEntry=false and ride on the prior run's row.
func MarkNew(anns []Announcement, existing map[string]bool) {
	for i := range anns {
		anns[i].IsNewEntry = !existing[anns[i].ScripCode]
	}
}
