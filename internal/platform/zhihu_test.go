package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

const zhihuSearchFixture = `
<html>
<body>
	<div class="SearchResult-Card">
		<div class="ContentItem">
			<h2 class="ContentItem-title"><a href="/question/600123/answer/330456">What do you think of Company X's productY?</a></h2>
			<div class="AuthorInfo"><span class="AuthorInfo-name">answerer_a</span></div>
			<div class="RichText">Honestly the pricing decision is what sparked most of the backlash, not the hardware itself.</div>
		</div>
	</div>
	<div class="SearchResult-Card">
		<div class="ContentItem">
			<h2 class="ContentItem-title"><a href="https://zhuanlan.zhihu.com/p/778899">productY teardown notes</a></h2>
			<div class="AuthorInfo"><span class="AuthorInfo-name">writer_b</span></div>
			<div class="RichText">A detailed look inside the device.</div>
		</div>
	</div>
	<div class="SearchResult-Card">
		<div class="ContentItem">
			<h2 class="ContentItem-title"><a href="">broken card</a></h2>
		</div>
	</div>
</body>
</html>`

func fixtureRenderer(html string) RenderFunc {
	return func(_ context.Context, _ string) (string, error) {
		return html, nil
	}
}

func TestZhihuSearch_ParsesRenderedCards(t *testing.T) {
	adapter := NewZhihuAdapter(WithZhihuRenderer(fixtureRenderer(zhihuSearchFixture)))

	var hits []types.SearchHit
	err := adapter.Search(context.Background(), []string{"productY"}, func(hit types.SearchHit) error {
		hits = append(hits, hit)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, hits, 2) // broken card skipped

	assert.Equal(t, NameZhihu, hits[0].Platform)
	assert.Equal(t, "question-600123-answer-330456", hits[0].NativeID)
	assert.Equal(t, "What do you think of Company X's productY?", hits[0].Title)
	assert.Contains(t, hits[0].JudgingContent, "sparked most of the backlash")
	assert.Equal(t, "answerer_a", hits[0].Author)
	assert.Equal(t, DefaultZhihuBaseURL+"/question/600123/answer/330456", hits[0].URL)
	assert.False(t, hits[0].RequiresDetail)

	// Absolute zhuanlan link gets a host-independent ID
	assert.Equal(t, "p-778899", hits[1].NativeID)
	assert.Equal(t, "https://zhuanlan.zhihu.com/p/778899", hits[1].URL)
}

func TestZhihuSearch_DedupesAcrossKeywords(t *testing.T) {
	adapter := NewZhihuAdapter(WithZhihuRenderer(fixtureRenderer(zhihuSearchFixture)))

	count := 0
	err := adapter.Search(context.Background(), []string{"productY", "backlash"}, func(types.SearchHit) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestZhihuSearch_RenderFailure(t *testing.T) {
	renderErr := errors.New("browser crashed")
	adapter := NewZhihuAdapter(WithZhihuRenderer(func(context.Context, string) (string, error) {
		return "", renderErr
	}))

	err := adapter.Search(context.Background(), []string{"productY"}, func(types.SearchHit) error { return nil })
	require.Error(t, err)

	var searchErr *SearchError
	assert.ErrorAs(t, err, &searchErr)
	assert.ErrorIs(t, err, renderErr)
}

func TestZhihuSearch_EmptyPage(t *testing.T) {
	adapter := NewZhihuAdapter(WithZhihuRenderer(fixtureRenderer("<html><body></body></html>")))

	count := 0
	err := adapter.Search(context.Background(), []string{"productY"}, func(types.SearchHit) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestZhihuNativeID(t *testing.T) {
	tests := []struct {
		href     string
		expected string
	}{
		{"/question/600123/answer/330456", "question-600123-answer-330456"},
		{"https://zhuanlan.zhihu.com/p/778899", "p-778899"},
		{"https://www.zhihu.com/question/42", "question-42"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, zhihuNativeID(tt.href), "href=%s", tt.href)
	}
}

func TestZhihuAdapter_Contract(t *testing.T) {
	adapter := NewZhihuAdapter()
	assert.Equal(t, "zhihu", adapter.Name())
	assert.False(t, adapter.RequiresTwoPhase())
}

func TestZhihuGetDetail_PlainFetchWhenServerRendered(t *testing.T) {
	article := strings.Repeat("The pricing backlash explained at length. ", 20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><div class="RichText">%s</div></body></html>`, article)
	}))
	defer server.Close()

	adapter := NewZhihuAdapter(
		WithZhihuBaseURL(server.URL),
		WithZhihuRenderer(func(context.Context, string) (string, error) {
			t.Fatal("renderer should not run for a server-rendered page")
			return "", nil
		}),
	)

	detail, err := adapter.GetDetail(context.Background(), "question-42-answer-7")
	require.NoError(t, err)
	assert.Contains(t, detail.Content, "pricing backlash explained")
	assert.Equal(t, server.URL+"/question/42/answer/7", detail.URL)
}

func TestZhihuGetDetail_RendersJavaScriptShell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><div id="root"></div></body></html>`)
	}))
	defer server.Close()

	article := strings.Repeat("Full client-rendered answer body. ", 20)
	rendered := fmt.Sprintf(`<html><body><div class="RichText">%s</div></body></html>`, article)

	renderCalls := 0
	adapter := NewZhihuAdapter(
		WithZhihuBaseURL(server.URL),
		WithZhihuRenderer(func(_ context.Context, _ string) (string, error) {
			renderCalls++
			return rendered, nil
		}),
	)

	detail, err := adapter.GetDetail(context.Background(), "question-42-answer-7")
	require.NoError(t, err)
	assert.Equal(t, 1, renderCalls)
	assert.Contains(t, detail.Content, "client-rendered answer body")
}

func TestZhihuDetailURL_ArticlesKeepZhuanlanHost(t *testing.T) {
	adapter := NewZhihuAdapter()

	assert.Equal(t, "https://www.zhihu.com/question/600123/answer/330456",
		adapter.detailURL("question-600123-answer-330456"))
	assert.Equal(t, "https://zhuanlan.zhihu.com/p/778899",
		adapter.detailURL("p-778899"))
}
