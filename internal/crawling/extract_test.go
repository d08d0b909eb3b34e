package crawling

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks_SelectorPath(t *testing.T) {
	html := `
		<html>
			<body>
				<div class="normal-recipe-list">
					<a href="/recipe/106907543/">番茄炒蛋</a>
					<a href="/recipe/106907543/#comments">评论</a>
					<a href="/recipe/104477213/">红烧肉</a>
					<a href="/recipe/create/">写菜谱</a>
					<a href="/explore/?page=2">下一页</a>
					<a href="https://other.com/recipe/1/">External</a>
				</div>
			</body>
		</html>
	`

	set, err := ExtractLinks(html, "https://www.xiachufang.com", RecipeLinkPattern)
	require.NoError(t, err)
	assert.False(t, set.FromFallback)
	assert.Equal(t, []string{
		"https://www.xiachufang.com/recipe/106907543/",
		"https://www.xiachufang.com/recipe/104477213/",
	}, set.Links)
}

func TestExtractLinks_RegexFallbackOnMalformedPage(t *testing.T) {
	// No parseable anchors: links only live inside a script template.
	html := `
		<html><body>
			<div id="app"></div>
			<script>
				var tpl = '<li><a href="/recipe/100000001/">a</a></li>' +
				          '<li><a href="/recipe/100000002">b</a></li>' +
				          '<li><a href="/recipe/100000001/">dup</a></li>';
			</script>
		</body></html>
	`

	set, err := ExtractLinks(html, "https://www.xiachufang.com", RecipeLinkPattern)
	require.NoError(t, err)
	assert.True(t, set.FromFallback)
	assert.Equal(t, []string{
		"https://www.xiachufang.com/recipe/100000001/",
		"https://www.xiachufang.com/recipe/100000002",
	}, set.Links)
}

func TestExtractLinks_FallbackNotUsedWhenSelectorMatches(t *testing.T) {
	html := `
		<a href="/recipe/1/">one</a>
		<script>'<a href="/recipe/2/">two</a>'</script>
	`
	set, err := ExtractLinks(html, "https://www.xiachufang.com", RecipeLinkPattern)
	require.NoError(t, err)
	assert.False(t, set.FromFallback)
	assert.Equal(t, []string{"https://www.xiachufang.com/recipe/1/"}, set.Links)
}

func TestExtractLinks_NothingFound(t *testing.T) {
	set, err := ExtractLinks(`<html><body><p>empty</p></body></html>`, "https://www.xiachufang.com", RecipeLinkPattern)
	require.NoError(t, err)
	assert.Empty(t, set.Links)
	assert.True(t, set.FromFallback)
}

func TestExtractLinks_NoFallbackPattern(t *testing.T) {
	p := LinkPattern{Selector: `a[href^="/item/"]`, Path: regexp.MustCompile(`/item/\d+`)}
	set, err := ExtractLinks(`<script>'<a href="/item/1">'</script>`, "https://example.com", p)
	require.NoError(t, err)
	assert.Empty(t, set.Links)
	assert.False(t, set.FromFallback)
}

func TestExtractLinks_InvalidBaseURL(t *testing.T) {
	_, err := ExtractLinks(`<a href="/recipe/1/">x</a>`, "not-a-url", RecipeLinkPattern)
	require.Error(t, err)

	var linkErr *LinkExtractionError
	assert.ErrorAs(t, err, &linkErr)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, Dedupe(nil))
}
