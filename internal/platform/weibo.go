package platform

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sallywang319/myMediaCrawler/internal/fetch"
	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// DefaultWeiboBaseURL is the mobile API host. The mobile site serves JSON
// without a login wall, unlike weibo.com.
const DefaultWeiboBaseURL = "https://m.weibo.cn"

// weiboSearchContainer is the containerid for the "all results" search tab.
const weiboSearchContainer = "100103type=1&q="

// WeiboAdapter discovers posts through the m.weibo.cn container search API.
// Search results carry a truncated preview of long posts, so the platform is
// two-phase: relevant items get a follow-up statuses/show fetch for the full
// text plus top-level comments.
type WeiboAdapter struct {
	baseURL string
	options *fetch.Options
	fetcher *fetch.CachedFetcher
	verbose bool
}

// WeiboOption configures a WeiboAdapter.
type WeiboOption func(*WeiboAdapter)

// WithWeiboBaseURL overrides the API host, mainly for tests.
func WithWeiboBaseURL(baseURL string) WeiboOption {
	return func(a *WeiboAdapter) { a.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithWeiboVerbose enables request logging.
func WithWeiboVerbose(verbose bool) WeiboOption {
	return func(a *WeiboAdapter) { a.verbose = verbose }
}

// NewWeiboAdapter creates the weibo adapter.
func NewWeiboAdapter(opts ...WeiboOption) *WeiboAdapter {
	a := &WeiboAdapter{
		baseURL: DefaultWeiboBaseURL,
		options: fetch.DefaultOptions(),
		fetcher: fetch.NewCachedFetcher(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Adapter.
func (a *WeiboAdapter) Name() string { return NameWeibo }

// RequiresTwoPhase implements Adapter. Weibo search text is truncated.
func (a *WeiboAdapter) RequiresTwoPhase() bool { return true }

// Close implements Adapter. It releases the detail fetch cache.
func (a *WeiboAdapter) Close() error {
	a.fetcher.Close()
	return nil
}

// weiboSearchResponse mirrors the container getIndex payload.
type weiboSearchResponse struct {
	OK   int `json:"ok"`
	Data struct {
		Cards []struct {
			CardType int        `json:"card_type"`
			Mblog    *weiboPost `json:"mblog"`
			// Grouped cards nest posts one level down.
			CardGroup []struct {
				CardType int        `json:"card_type"`
				Mblog    *weiboPost `json:"mblog"`
			} `json:"card_group"`
		} `json:"cards"`
	} `json:"data"`
}

type weiboPost struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	IsLongText bool   `json:"isLongText"`
	User       struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	Pics []struct {
		URL string `json:"url"`
	} `json:"pics"`
	LongText struct {
		LongTextContent string `json:"longTextContent"`
	} `json:"longText"`
}

// Search implements Adapter. One search page per keyword; posts that surface
// under several keywords are emitted once, attributed to the first keyword.
func (a *WeiboAdapter) Search(ctx context.Context, keywords []string, emit func(types.SearchHit) error) error {
	seen := make(map[string]bool)

	for _, keyword := range keywords {
		searchURL := fmt.Sprintf("%s/api/container/getIndex?containerid=%s&page_type=searchall",
			a.baseURL, url.QueryEscape(weiboSearchContainer+keyword))

		if a.verbose {
			log.Printf("[WEIBO] Searching: %s", keyword)
		}

		var response weiboSearchResponse
		if err := fetch.JSON(ctx, searchURL, a.options, &response); err != nil {
			return &SearchError{Platform: NameWeibo, Keyword: keyword, Message: "container search request failed", Cause: err}
		}
		if response.OK != 1 {
			return &SearchError{Platform: NameWeibo, Keyword: keyword, Message: fmt.Sprintf("API returned ok=%d", response.OK)}
		}

		posts := make([]*weiboPost, 0, len(response.Data.Cards))
		for _, card := range response.Data.Cards {
			if card.CardType == 9 && card.Mblog != nil {
				posts = append(posts, card.Mblog)
			}
			for _, grouped := range card.CardGroup {
				if grouped.CardType == 9 && grouped.Mblog != nil {
					posts = append(posts, grouped.Mblog)
				}
			}
		}

		for _, post := range posts {
			if post.ID == "" || seen[post.ID] {
				continue
			}
			seen[post.ID] = true

			hit := types.SearchHit{
				Platform:        NameWeibo,
				NativeID:        post.ID,
				JudgingContent:  stripHTML(post.Text),
				Author:          post.User.ScreenName,
				URL:             fmt.Sprintf("%s/detail/%s", a.baseURL, post.ID),
				RequiresDetail:  true,
				DiscoveredByKey: keyword,
			}
			if err := emit(hit); err != nil {
				return err
			}
		}
	}
	return nil
}

// weiboDetailResponse mirrors the statuses/show payload.
type weiboDetailResponse struct {
	OK   int       `json:"ok"`
	Data weiboPost `json:"data"`
}

// weiboCommentsResponse mirrors the comments/hotflow payload.
type weiboCommentsResponse struct {
	OK   int `json:"ok"`
	Data struct {
		Data []struct {
			ID   any    `json:"id"`
			Text string `json:"text"`
			User struct {
				ScreenName string `json:"screen_name"`
			} `json:"user"`
		} `json:"data"`
	} `json:"data"`
}

// GetDetail implements Adapter. Fetches the full post text and top-level
// comments. A comment fetch failure is tolerated: full text without comments
// is still a complete detail.
func (a *WeiboAdapter) GetDetail(ctx context.Context, nativeID string) (*Detail, error) {
	detailURL := fmt.Sprintf("%s/statuses/show?id=%s", a.baseURL, url.QueryEscape(nativeID))

	result, err := a.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return nil, &DetailError{Platform: NameWeibo, NativeID: nativeID, Message: "statuses/show request failed", Cause: err}
	}

	var response weiboDetailResponse
	if err := decodeJSON(result.HTML, &response); err != nil {
		return nil, &DetailError{Platform: NameWeibo, NativeID: nativeID, Message: "malformed detail payload", Cause: err}
	}
	if response.OK != 1 {
		return nil, &DetailError{Platform: NameWeibo, NativeID: nativeID, Message: fmt.Sprintf("API returned ok=%d", response.OK)}
	}

	post := response.Data
	content := post.Text
	if post.LongText.LongTextContent != "" {
		content = post.LongText.LongTextContent
	}

	detail := &Detail{
		Content: stripHTML(content),
		Author:  post.User.ScreenName,
		URL:     fmt.Sprintf("%s/detail/%s", a.baseURL, nativeID),
	}
	for _, pic := range post.Pics {
		detail.MediaURLs = append(detail.MediaURLs, pic.URL)
	}

	comments, err := a.fetchComments(ctx, nativeID)
	if err != nil {
		log.Printf("[WEIBO] comment fetch for %s failed, continuing without: %v", nativeID, err)
	} else {
		detail.Comments = comments
	}

	return detail, nil
}

func (a *WeiboAdapter) fetchComments(ctx context.Context, nativeID string) ([]types.Comment, error) {
	commentsURL := fmt.Sprintf("%s/comments/hotflow?id=%s&mid=%s&max_id_type=0",
		a.baseURL, url.QueryEscape(nativeID), url.QueryEscape(nativeID))

	result, err := a.fetcher.Fetch(ctx, commentsURL)
	if err != nil {
		return nil, err
	}

	var response weiboCommentsResponse
	if err := decodeJSON(result.HTML, &response); err != nil {
		return nil, err
	}
	if response.OK != 1 {
		return nil, fmt.Errorf("comments API returned ok=%d", response.OK)
	}

	comments := make([]types.Comment, 0, len(response.Data.Data))
	for _, c := range response.Data.Data {
		comments = append(comments, types.Comment{
			NativeID: fmt.Sprintf("%v", c.ID),
			Author:   c.User.ScreenName,
			Content:  stripHTML(c.Text),
		})
	}
	return comments, nil
}

// stripHTML flattens the platform's rich-text markup to plain text.
func stripHTML(html string) string {
	if !strings.ContainsRune(html, '<') {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(doc.Text())
}
