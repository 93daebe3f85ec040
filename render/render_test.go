package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threePart = `제목: 결제를 더 쉽게 만드는 개발자

**[1] 성장과정 (약 400-500자)**
어릴 때부터 고장 난 물건을 고쳤습니다.

**[2] 지원동기**

토스의 **간편함**에 매료되었습니다.
- 첫째
- 둘째

**[3] 입사 후 포부**
https://toss.im 을 더 좋게 만들겠습니다.
`

func TestSplit_Markers(t *testing.T) {
	got := Split(threePart)
	require.Len(t, got, 4)

	assert.Equal(t, Section{Body: "제목: 결제를 더 쉽게 만드는 개발자"}, got[0])
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, "성장과정", got[1].Title, "length hint is stripped")
	assert.Equal(t, "어릴 때부터 고장 난 물건을 고쳤습니다.", got[1].Body)
	assert.Equal(t, "지원동기", got[2].Title)
	assert.True(t, strings.HasPrefix(got[2].Body, "토스의"))
	assert.Equal(t, 3, got[3].Index)
	assert.Equal(t, "입사 후 포부", got[3].Title)
}

func TestSplit_NoMarkers(t *testing.T) {
	assert.Equal(t, []Section{{Body: "그냥 본문입니다."}}, Split("\n그냥 본문입니다.\n"))
	assert.Empty(t, Split("  \n"))
}

func TestSplit_HeadingStyleMarker(t *testing.T) {
	got := Split("### **[1] 성장과정**\r\n본문")
	require.Len(t, got, 1)
	assert.Equal(t, "성장과정", got[0].Title)
	assert.Equal(t, "본문", got[0].Body)
}

func TestSplit_InlineBoldIsNotAMarker(t *testing.T) {
	got := Split("저는 **[1] 순위**를 받았습니다.")
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Title)
}

func TestToHTML(t *testing.T) {
	out, err := ToHTML(threePart)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, `<section class="letter-part">`))
	assert.Contains(t, out, "<h3>성장과정</h3>")
	assert.Contains(t, out, "<h3>입사 후 포부</h3>")
	assert.Contains(t, out, "<strong>간편함</strong>")
	assert.Contains(t, out, "<li>첫째</li>")
	assert.Contains(t, out, `<a href="https://toss.im">`)
	assert.NotContains(t, out, "**[")
	assert.True(t, strings.HasPrefix(out, "<p>제목: 결제를 더 쉽게 만드는 개발자</p>"))
}

func TestToHTML_EscapesTitle(t *testing.T) {
	out, err := ToHTML("**[1] <script>**\n본문")
	require.NoError(t, err)
	assert.Contains(t, out, "<h3>&lt;script&gt;</h3>")
}

func TestPage(t *testing.T) {
	page := Page("batch <1>", []Card{
		{Heading: "버전 1 (GPT-5.2)", HTML: "<p>본문</p>"},
		{Heading: "버전 4 (Claude 4.5 Sonnet)", HTML: "<p>오류 발생: down</p>", Failed: true},
	})
	assert.Contains(t, page, "<title>batch &lt;1&gt;</title>")
	assert.Equal(t, 2, strings.Count(page, "<article"))
	assert.Contains(t, page, `<article class="failed"><h2>버전 4 (Claude 4.5 Sonnet)</h2>`)
	assert.Contains(t, page, "<p>본문</p>")
}
