package platform

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sallywang319/myMediaCrawler/internal/fetch"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// DefaultZhihuBaseURL is the public site host.
const DefaultZhihuBaseURL = "https://www.zhihu.com"

// DefaultZhihuArticleBaseURL is the host zhuanlan articles live on. Article
// native IDs (`p-<id>`) resolve here, not on the main site host.
const DefaultZhihuArticleBaseURL = "https://zhuanlan.zhihu.com"

// zhihuRenderTimeout bounds a single headless-browser page render.
const zhihuRenderTimeout = 45 * time.Second

// RenderFunc produces the final HTML for a URL. The default implementation
// drives a headless browser; tests substitute a fixture.
type RenderFunc func(ctx context.Context, url string) (string, error)

// ZhihuAdapter discovers answers and articles by rendering the search page in
// a headless browser and scraping the result cards. Zhihu serves search
// results client-side only, so a plain HTTP fetch returns an empty shell.
// The rendered excerpt is the full card content, so the platform is
// single-phase.
type ZhihuAdapter struct {
	baseURL        string
	articleBaseURL string
	render         RenderFunc
	verbose        bool
}

// ZhihuOption configures a ZhihuAdapter.
type ZhihuOption func(*ZhihuAdapter)

// WithZhihuBaseURL overrides both site hosts, mainly for tests.
func WithZhihuBaseURL(baseURL string) ZhihuOption {
	return func(a *ZhihuAdapter) {
		a.baseURL = strings.TrimRight(baseURL, "/")
		a.articleBaseURL = a.baseURL
	}
}

// WithZhihuRenderer substitutes the page renderer.
func WithZhihuRenderer(render RenderFunc) ZhihuOption {
	return func(a *ZhihuAdapter) { a.render = render }
}

// WithZhihuVerbose enables request logging.
func WithZhihuVerbose(verbose bool) ZhihuOption {
	return func(a *ZhihuAdapter) { a.verbose = verbose }
}

// NewZhihuAdapter creates the zhihu adapter.
func NewZhihuAdapter(opts ...ZhihuOption) *ZhihuAdapter {
	a := &ZhihuAdapter{
		baseURL:        DefaultZhihuBaseURL,
		articleBaseURL: DefaultZhihuArticleBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.render == nil {
		verbose := a.verbose
		a.render = func(ctx context.Context, pageURL string) (string, error) {
			return fetch.WithBrowser(ctx, pageURL, zhihuRenderTimeout, verbose)
		}
	}
	return a
}

// Name implements Adapter.
func (a *ZhihuAdapter) Name() string { return NameZhihu }

// RequiresTwoPhase implements Adapter. Rendered cards carry full excerpts.
func (a *ZhihuAdapter) RequiresTwoPhase() bool { return false }

// Close implements Adapter. The adapter holds no background resources.
func (a *ZhihuAdapter) Close() error { return nil }

// Search implements Adapter. One rendered page per keyword.
func (a *ZhihuAdapter) Search(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error {
	seen := make(map[string]bool)

	for _, keyword := range keywords {
		searchURL := fmt.Sprintf("%s/search?type=content&q=%s", a.baseURL, url.QueryEscape(keyword))

		if a.verbose {
			log.Printf("[ZHIHU] Searching: %s", keyword)
		}

		html, err := a.render(ctx, searchURL)
		if err != nil {
			return &SearchError{Platform: NameZhihu, Keyword: keyword, Message: "page render failed", Cause: err}
		}

		hits, err := parseZhihuSearchPage(html, a.baseURL, keyword)
		if err != nil {
			return &SearchError{Platform: NameZhihu, Keyword: keyword, Message: "result parse failed", Cause: err}
		}

		for _, hit := range hits {
			if seen[hit.NativeID] {
				continue
			}
			seen[hit.NativeID] = true
			if err := emit(hit); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseZhihuSearchPage scrapes result cards out of a rendered search page.
func parseZhihuSearchPage(html, baseURL, keyword string) ([]types.SearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var hits []types.SearchHit
	doc.Find(".SearchResult-Card .ContentItem, .Card .ContentItem").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find(".ContentItem-title a").First()
		href, _ := titleLink.Attr("href")
		if href == "" {
			return
		}

		nativeID := zhihuNativeID(href)
		if nativeID == "" {
			return
		}

		title := strings.TrimSpace(titleLink.Text())
		excerpt := strings.TrimSpace(card.Find(".RichText").First().Text())
		author := strings.TrimSpace(card.Find(".AuthorInfo-name").First().Text())

		hits = append(hits, types.SearchHit{
			Platform:        NameZhihu,
			NativeID:        nativeID,
			Title:           title,
			JudgingContent:  strings.TrimSpace(title + "\n" + excerpt),
			Author:          author,
			URL:             absoluteURL(baseURL, href),
			RequiresDetail:  false,
			DiscoveredByKey: keyword,
		})
	})

	return hits, nil
}

// zhihuNativeID derives a stable per-platform ID from a result link.
// Answer links look like /question/123/answer/456, articles like
// zhuanlan.zhihu.com/p/789.
func zhihuNativeID(href string) string {
	trimmed := strings.Trim(href, "/")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	if idx := strings.Index(trimmed, "/"); idx >= 0 && strings.Contains(trimmed[:idx], ".") {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" {
		return ""
	}
	return strings.ReplaceAll(trimmed, "/", "-")
}

func absoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return baseURL + href
}

// GetDetail implements Adapter. Zhihu is single-phase so the pipeline never
// calls this; rendering an individual content page is still supported for
// manual inspection through the CLI. A plain fetch is tried first and the
// headless browser is only spun up when the server-rendered shell carries
// too little text.
func (a *ZhihuAdapter) GetDetail(ctx context.Context, nativeID string) (*Detail, error) {
	pageURL := a.detailURL(nativeID)

	html, err := a.fetchDetailHTML(ctx, pageURL)
	if err != nil {
		return nil, &DetailError{Platform: NameZhihu, NativeID: nativeID, Message: "page render failed", Cause: err}
	}

	text, err := fetch.ExtractMainText(html, zhihuContentSelectors, zhihuNoiseSelectors...)
	if err != nil {
		return nil, &DetailError{Platform: NameZhihu, NativeID: nativeID, Message: "content parse failed", Cause: err}
	}

	return &Detail{
		Content: text,
		URL:     pageURL,
	}, nil
}

var (
	zhihuContentSelectors = []string{".RichText", ".Post-RichText", "main"}
	zhihuNoiseSelectors   = []string{".Modal", ".SignFlowHomepage"}
)

// detailURL rebuilds a content page URL from a native ID. Article IDs keep
// the zhuanlan host they were discovered on.
func (a *ZhihuAdapter) detailURL(nativeID string) string {
	path := strings.ReplaceAll(nativeID, "-", "/")
	if strings.HasPrefix(path, "p/") {
		return fmt.Sprintf("%s/%s", a.articleBaseURL, path)
	}
	return fmt.Sprintf("%s/%s", a.baseURL, path)
}

func (a *ZhihuAdapter) fetchDetailHTML(ctx context.Context, pageURL string) (string, error) {
	result, err := fetch.URL(ctx, pageURL, nil)
	if err == nil {
		text, extractErr := fetch.ExtractMainText(result.HTML, zhihuContentSelectors, zhihuNoiseSelectors...)
		if extractErr == nil && !fetch.ShouldUseBrowser(text) {
			return result.HTML, nil
		}
	}
	if a.verbose && err != nil {
		log.Printf("[ZHIHU] Plain fetch failed, rendering %s: %v", pageURL, err)
	}
	return a.render(ctx, pageURL)
}
