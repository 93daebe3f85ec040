package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"cover_letter_studio/config"
	"cover_letter_studio/generator"
	"cover_letter_studio/imaging"
)

//go:embed web/dist
var embeddedStatic embed.FS

// maxKeptBatches bounds the in-memory replay store.
const maxKeptBatches = 64

type Server struct {
	agent    *generator.Agent
	photos   *imaging.Service
	cfg      config.Config
	store    *batchStore
	validate *validator.Validate
	log      logrus.FieldLogger
	staticFS http.Handler
}

// batchStore keeps the most recent streamed batches so a client that lost its
// connection can fetch what was produced.
type batchStore struct {
	mu      sync.Mutex
	batches map[string]*generator.Batch
	order   []string
	limit   int
}

func newStore(limit int) *batchStore {
	return &batchStore{batches: make(map[string]*generator.Batch), limit: limit}
}

func (s *batchStore) add(b *generator.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
	s.order = append(s.order, b.ID)
	for len(s.order) > s.limit {
		delete(s.batches, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *batchStore) get(id string) (*generator.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	return b, ok
}

func New(agent *generator.Agent, photos *imaging.Service, cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if photos == nil {
		return nil, errors.New("id photo service required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		agent:    agent,
		photos:   photos,
		cfg:      cfg,
		store:    newStore(maxKeptBatches),
		validate: newValidator(),
		log:      log,
		staticFS: http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", post(s.handleGenerateStream))
	mux.HandleFunc("/api/variation", post(s.handleVariationStream))
	mux.Handle("/api/generate/collect", gzipped(post(s.handleGenerateCollect)))
	mux.Handle("/api/variation/collect", gzipped(post(s.handleVariationCollect)))
	mux.Handle("/api/translate", gzipped(post(s.handleTranslate)))
	mux.Handle("/api/review", gzipped(post(s.handleReview)))
	mux.Handle("/api/id-photo", gzipped(post(s.handleIDPhoto)))
	mux.Handle("/api/render", gzipped(post(s.handleRender)))
	mux.Handle("/api/batches/", gzipped(http.HandlerFunc(s.handleBatchByID)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/", s.staticHandler())
	return logMiddleware(s.log, mux)
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// FileServer answers "/" with index.html itself.
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			s.staticFS.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusNotFound, "not found")
	})
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func gzipped(h http.Handler) http.Handler {
	return gzhttp.GzipHandler(h)
}
