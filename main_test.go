package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cover_letter_studio/client"
	"cover_letter_studio/config"
	"cover_letter_studio/generator"
	"cover_letter_studio/imaging"
	"cover_letter_studio/server"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBuildProviders_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Mock = true
	p, err := buildProviders(context.Background(), cfg, quietLog())
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, p.gpt)
	assert.IsType(t, generator.MockLLM{}, p.claude)
	assert.NotNil(t, p.imager)
}

func TestBuildProviders_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAI.APIKey = "sk-test"
	_, err := buildProviders(context.Background(), cfg, quietLog())
	assert.ErrorIs(t, err, generator.ErrMissingCredential)
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, client.BatchOutcome{
		BatchID:   "b-1",
		Skipped:   1,
		Truncated: true,
		Results: []generator.Result{
			{ID: 1, Model: generator.ModelGPT, Content: "첫 번째 버전", Status: generator.StatusSuccess},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "batch b-1: 1 results")
	assert.Contains(t, out, "1 malformed frames skipped")
	assert.Contains(t, out, "stream ended early")
	assert.Contains(t, out, "=== 버전 1 (GPT-5.2) ===")
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "generate", "vary"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func mockStudio(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Mock = true
	cfg.Heartbeat = 0
	p, err := buildProviders(context.Background(), cfg, quietLog())
	require.NoError(t, err)
	agent, err := generator.NewAgent(p.gpt, p.claude, generator.WithLogger(quietLog()))
	require.NoError(t, err)
	srv, err := server.New(agent, &imaging.Service{Client: p.imager, Log: quietLog()}, cfg, quietLog())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestGenerateCommand_WritesHTML(t *testing.T) {
	ts := mockStudio(t)
	page := filepath.Join(t.TempDir(), "batch.html")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"generate", "--server", ts.URL, "--name", "홍길동", "--company", "카카오", "--html", page})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), ": 6 results")
	assert.NotContains(t, out.String(), "stream ended early")

	data, err := os.ReadFile(page)
	require.NoError(t, err)
	html := string(data)
	assert.Equal(t, 6, strings.Count(html, "<article>"))
	assert.Contains(t, html, "버전 4 (Claude 4.5 Sonnet)")
	assert.Contains(t, html, "홍길동")
}

func TestFinishBatch_RecoversTruncatedStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/batches/b-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"batchId":"b-9","kind":"generate","size":2,"done":true,"results":[
			{"id":1,"model":"GPT-5.2","content":"첫째","status":"success"},
			{"id":2,"model":"GPT-5.2","content":"오류 발생: context canceled","status":"error"}]}`))
	}))
	defer ts.Close()

	o := client.BatchOutcome{
		BatchID:   "b-9",
		Truncated: true,
		Results:   []generator.Result{{ID: 1, Model: generator.ModelGPT, Content: "첫째", Status: generator.StatusSuccess}},
	}
	var out bytes.Buffer
	require.NoError(t, finishBatch(context.Background(), client.New(ts.URL), o, batchFlags{}, &out))
	assert.Contains(t, out.String(), "batch b-9: 2 results")
	assert.NotContains(t, out.String(), "stream ended early")
	assert.Contains(t, out.String(), "오류 발생: context canceled")
}
