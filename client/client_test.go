package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cover_letter_studio/generator"
)

func frame(r generator.Result) string {
	b, _ := json.Marshal(r)
	return "data: " + string(b) + "\n\n"
}

var (
	r1 = generator.Result{ID: 1, Model: generator.ModelGPT, Content: "첫째", Status: generator.StatusSuccess}
	r4 = generator.Result{ID: 4, Model: generator.ModelClaude, Content: "오류 발생: down", Status: generator.StatusError}
	r5 = generator.Result{ID: 5, Model: generator.ModelClaude, Content: "다섯째", Status: generator.StatusSuccess}
)

func TestConsume_OutOfOrderDuplicatesAndGarbage(t *testing.T) {
	body := frame(r5) +
		"data: {not json}\n\n" +
		": ping\n\n" +
		frame(r1) +
		frame(generator.Result{ID: 5, Model: generator.ModelClaude, Content: "중복", Status: generator.StatusSuccess}) +
		`data: {"id":7,"model":"GPT-5.2","content":"x","status":"weird"}` + "\n\n" +
		frame(r4) +
		"data: [DONE]\n\n"

	coll := generator.NewCollection()
	var arrivals []int
	skipped, truncated, err := Consume(iotest.OneByteReader(strings.NewReader(body)), coll, func(r generator.Result) {
		arrivals = append(arrivals, r.ID)
	})
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []int{5, 1, 4}, arrivals)

	if diff := cmp.Diff([]generator.Result{r1, r4, r5}, coll.Sorted()); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestConsume_Truncated(t *testing.T) {
	coll := generator.NewCollection()
	skipped, truncated, err := Consume(strings.NewReader(frame(r1)+frame(r4)), coll, nil)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Zero(t, skipped)
	assert.Equal(t, 2, coll.Len())
}

func TestConsume_IgnoresFramesAfterSentinel(t *testing.T) {
	coll := generator.NewCollection()
	_, _, err := Consume(strings.NewReader(frame(r1)+"data: [DONE]\n\n"+frame(r5)), coll, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.Len())
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var app generator.Applicant
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&app))
		assert.Equal(t, "홍길동", app.Name)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("X-Batch-ID", "batch-1")
		_, _ = w.Write([]byte(frame(r4) + frame(r1) + "data: [DONE]\n\n"))
	}))
	defer srv.Close()

	var seen []int
	out, err := New(srv.URL+"/").Generate(context.Background(), generator.Applicant{Name: "홍길동"}, func(r generator.Result) {
		seen = append(seen, r.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", out.BatchID)
	assert.Equal(t, []int{4, 1}, seen)
	assert.Equal(t, []generator.Result{r1, r4}, out.Results)
	assert.False(t, out.Truncated)
}

func TestVariation_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"원본 자기소개서가 없습니다."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Variation(context.Background(), "", nil)
	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, "원본 자기소개서가 없습니다.", te.Message)
}

func TestTransportError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Translate(context.Background(), "안녕")
	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Error(t, te.Unwrap())
}

func TestTranslateAndReview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/translate":
			_, _ = w.Write([]byte(`{"success":true,"translatedText":"Hello"}`))
		case "/api/review":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "claude", body["reviewer"])
			_, _ = w.Write([]byte(`{"success":true,"review":{"overall_score":91,"overall_comment":"좋음","revised_content":"수정본"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	text, err := c.Translate(context.Background(), "안녕하세요")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	report, err := c.Review(context.Background(), "본문", "claude")
	require.NoError(t, err)
	assert.Equal(t, 91, report.OverallScore)
	assert.Equal(t, "수정본", report.RevisedText)
}

func TestRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/render", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"html":"<section class=\"letter-part\"><h3>성장과정</h3>\n<p>본문</p>\n</section>\n","sections":[{"index":1,"title":"성장과정","body":"본문"}]}`))
	}))
	defer srv.Close()

	out, err := New(srv.URL).Render(context.Background(), "**[1] 성장과정**\n본문")
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "<h3>성장과정</h3>")
	require.Len(t, out.Sections, 1)
	assert.Equal(t, "성장과정", out.Sections[0].Title)
}

// replayServer serves one batch record under /api/batches/.
func replayServer(t *testing.T, id string, record string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/api/batches/"+id {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"batch not found"}`))
			return
		}
		_, _ = w.Write([]byte(record))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func recordJSON(done bool, results ...generator.Result) string {
	b, _ := json.Marshal(map[string]any{
		"success": true, "batchId": "b-1", "kind": "generate", "size": 3, "done": done, "results": results,
	})
	return string(b)
}

func TestReplay(t *testing.T) {
	srv := replayServer(t, "b-1", recordJSON(true, r1, r4, r5))
	c := New(srv.URL)

	rec, err := c.Replay(context.Background(), "b-1")
	require.NoError(t, err)
	assert.True(t, rec.Done)
	assert.Equal(t, 3, rec.Size)
	assert.Equal(t, []generator.Result{r1, r4, r5}, rec.Results)

	_, err = c.Replay(context.Background(), "gone")
	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)

	_, err = c.Replay(context.Background(), "")
	assert.Error(t, err)
}

func TestRecover_FillsTruncatedOutcome(t *testing.T) {
	srv := replayServer(t, "b-1", recordJSON(true, r1, r4, r5))
	kept := generator.Result{ID: 1, Model: generator.ModelGPT, Content: "이미 받은 것", Status: generator.StatusSuccess}
	o := BatchOutcome{BatchID: "b-1", Truncated: true, Results: []generator.Result{kept}}

	require.NoError(t, New(srv.URL).Recover(context.Background(), &o))
	assert.False(t, o.Truncated)
	assert.Equal(t, []generator.Result{kept, r4, r5}, o.Results, "received results win over the replay")
}

func TestRecover_StillRunningStaysTruncated(t *testing.T) {
	srv := replayServer(t, "b-1", recordJSON(false, r4))
	o := BatchOutcome{BatchID: "b-1", Truncated: true, Results: []generator.Result{r1}}

	require.NoError(t, New(srv.URL).Recover(context.Background(), &o))
	assert.True(t, o.Truncated)
	assert.Len(t, o.Results, 2)
}

func TestRecover_CompleteOutcomeUntouched(t *testing.T) {
	o := BatchOutcome{BatchID: "b-1", Results: []generator.Result{r1}}
	// no server: a complete outcome must not trigger a request
	require.NoError(t, New("http://127.0.0.1:1").Recover(context.Background(), &o))
	assert.Equal(t, []generator.Result{r1}, o.Results)
}
