package platform

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/Sallywang319/myMediaCrawler/internal/fetch"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// DefaultBilibiliBaseURL is the public web API host.
const DefaultBilibiliBaseURL = "https://api.bilibili.com"

// BilibiliAdapter discovers videos through the web search API. The search
// payload already carries the full title and description, so the platform is
// single-phase: relevant items are saved straight from search content.
type BilibiliAdapter struct {
	baseURL string
	options *fetch.Options
	verbose bool
}

// BilibiliOption configures a BilibiliAdapter.
type BilibiliOption func(*BilibiliAdapter)

// WithBilibiliBaseURL overrides the API host, mainly for tests.
func WithBilibiliBaseURL(baseURL string) BilibiliOption {
	return func(a *BilibiliAdapter) { a.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithBilibiliVerbose enables request logging.
func WithBilibiliVerbose(verbose bool) BilibiliOption {
	return func(a *BilibiliAdapter) { a.verbose = verbose }
}

// NewBilibiliAdapter creates the bilibili adapter.
func NewBilibiliAdapter(opts ...BilibiliOption) *BilibiliAdapter {
	a := &BilibiliAdapter{
		baseURL: DefaultBilibiliBaseURL,
		options: fetch.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Adapter.
func (a *BilibiliAdapter) Name() string { return NameBilibili }

// RequiresTwoPhase implements Adapter. Search results are complete.
func (a *BilibiliAdapter) RequiresTwoPhase() bool { return false }

// Close implements Adapter. The adapter holds no background resources.
func (a *BilibiliAdapter) Close() error { return nil }

// bilibiliSearchResponse mirrors the x/web-interface/search/type payload.
type bilibiliSearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Result []struct {
			BVID        string `json:"bvid"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Author      string `json:"author"`
			ArcURL      string `json:"arcurl"`
		} `json:"result"`
	} `json:"data"`
}

// Search implements Adapter. Titles come back with <em class="keyword">
// highlight markup around matched terms, which gets stripped before judging.
func (a *BilibiliAdapter) Search(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error {
	seen := make(map[string]bool)

	for _, keyword := range keywords {
		searchURL := fmt.Sprintf("%s/x/web-interface/search/type?search_type=video&keyword=%s&page=1",
			a.baseURL, url.QueryEscape(keyword))

		if a.verbose {
			log.Printf("[BILIBILI] Searching: %s", keyword)
		}

		var response bilibiliSearchResponse
		if err := fetch.JSON(ctx, searchURL, a.options, &response); err != nil {
			return &SearchError{Platform: NameBilibili, Keyword: keyword, Message: "search request failed", Cause: err}
		}
		if response.Code != 0 {
			return &SearchError{Platform: NameBilibili, Keyword: keyword,
				Message: fmt.Sprintf("API returned code=%d (%s)", response.Code, response.Message)}
		}

		for _, video := range response.Data.Result {
			if video.BVID == "" || seen[video.BVID] {
				continue
			}
			seen[video.BVID] = true

			title := stripHTML(video.Title)
			hit := types.SearchHit{
				Platform:        NameBilibili,
				NativeID:        video.BVID,
				Title:           title,
				JudgingContent:  strings.TrimSpace(title + "\n" + video.Description),
				Author:          video.Author,
				URL:             video.ArcURL,
				RequiresDetail:  false,
				DiscoveredByKey: keyword,
			}
			if err := emit(hit); err != nil {
				return err
			}
		}
	}
	return nil
}

// bilibiliViewResponse mirrors the x/web-interface/view payload.
type bilibiliViewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		BVID  string `json:"bvid"`
		Title string `json:"title"`
		Desc  string `json:"desc"`
		Pic   string `json:"pic"`
		Owner struct {
			Name string `json:"name"`
		} `json:"owner"`
	} `json:"data"`
}

// GetDetail implements Adapter. The pipeline never calls this for a
// single-phase platform, but the view API is cheap to support for manual
// inspection through the CLI.
func (a *BilibiliAdapter) GetDetail(ctx context.Context, nativeID string) (*Detail, error) {
	viewURL := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", a.baseURL, url.QueryEscape(nativeID))

	var response bilibiliViewResponse
	if err := fetch.JSON(ctx, viewURL, a.options, &response); err != nil {
		return nil, &DetailError{Platform: NameBilibili, NativeID: nativeID, Message: "view request failed", Cause: err}
	}
	if response.Code != 0 {
		return nil, &DetailError{Platform: NameBilibili, NativeID: nativeID,
			Message: fmt.Sprintf("API returned code=%d (%s)", response.Code, response.Message)}
	}

	detail := &Detail{
		Title:   response.Data.Title,
		Content: strings.TrimSpace(response.Data.Title + "\n" + response.Data.Desc),
		Author:  response.Data.Owner.Name,
		URL:     fmt.Sprintf("https://www.bilibili.com/video/%s", nativeID),
	}
	if response.Data.Pic != "" {
		detail.MediaURLs = []string{response.Data.Pic}
	}
	return detail, nil
}
