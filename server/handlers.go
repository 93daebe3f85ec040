package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cover_letter_studio/generator"
	"cover_letter_studio/imaging"
	"cover_letter_studio/render"
	"cover_letter_studio/stream"
)

// maxBodyBytes leaves room for a base64 source photo.
const maxBodyBytes = 20 << 20

// --- Request / response types ---

type variationReq struct {
	OriginalContent string `json:"originalContent" validate:"required" msg:"원본 자기소개서가 없습니다."`
	Model           string `json:"model"`
}

type translateReq struct {
	Text string `json:"text" validate:"required" msg:"번역할 텍스트가 없습니다."`
}

type reviewReq struct {
	Content  string `json:"content" validate:"required" msg:"자기소개서 내용이 없습니다."`
	Reviewer string `json:"reviewer" validate:"omitempty,oneof=gpt claude" msg:"reviewer는 gpt 또는 claude 여야 합니다."`
}

type idPhotoReq struct {
	Image           string `json:"image" validate:"required" msg:"이미지가 필요합니다."`
	Outfit          string `json:"outfit" validate:"required" msg:"의상 선택이 필요합니다."`
	BackgroundColor string `json:"backgroundColor"`
}

type renderReq struct {
	Content string `json:"content" validate:"required" msg:"변환할 내용이 없습니다."`
}

type renderResp struct {
	Success  bool             `json:"success"`
	HTML     string           `json:"html"`
	Sections []render.Section `json:"sections"`
}

type collectResp struct {
	Success     bool               `json:"success"`
	Results     []generator.Result `json:"results"`
	GeneratedAt string             `json:"generatedAt"`
}

// batchResp is the replay record of a streamed batch. Done means every task
// has settled, not that every task succeeded: when the streaming client
// disconnects, the request context is cancelled and tasks still in flight
// settle as "오류 발생: context canceled" failures.
type batchResp struct {
	Success bool               `json:"success"`
	BatchID string             `json:"batchId"`
	Kind    string             `json:"kind"`
	Size    int                `json:"size"`
	Done    bool               `json:"done"`
	Results []generator.Result `json:"results"`
}

type errorResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// --- Batch handlers ---

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req generator.Applicant
	if !s.decode(w, r, &req) {
		return
	}
	s.streamBatch(w, r, "generate", s.agent.GenerateTasks(req))
}

func (s *Server) handleGenerateCollect(w http.ResponseWriter, r *http.Request) {
	var req generator.Applicant
	if !s.decode(w, r, &req) {
		return
	}
	s.collectBatch(w, r, s.agent.GenerateTasks(req))
}

func (s *Server) handleVariationStream(w http.ResponseWriter, r *http.Request) {
	var req variationReq
	if !s.decode(w, r, &req) {
		return
	}
	s.log.WithField("source_model", req.Model).Debug("variation requested")
	s.streamBatch(w, r, "variation", s.agent.VariationTasks(req.OriginalContent))
}

func (s *Server) handleVariationCollect(w http.ResponseWriter, r *http.Request) {
	var req variationReq
	if !s.decode(w, r, &req) {
		return
	}
	s.collectBatch(w, r, s.agent.VariationTasks(req.OriginalContent))
}

// streamBatch pushes each result as soon as its task settles. This goroutine
// is the only writer of both the response and the batch record. Tasks run
// under the request context, so a disconnect cancels in-flight provider calls;
// the loop keeps draining so the stored batch still holds one result per task.
func (s *Server) streamBatch(w http.ResponseWriter, r *http.Request, kind string, tasks []generator.Task) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StreamTimeout)
	defer cancel()

	batch := generator.NewBatch(uuid.NewString(), kind, len(tasks))
	s.store.add(batch)
	log := s.log.WithFields(logrus.Fields{"batch": batch.ID, "kind": kind, "size": len(tasks)})

	w.Header().Set("X-Batch-ID", batch.ID)
	sw, err := stream.NewWriter(w)
	if err != nil {
		batch.Finish()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var tick <-chan time.Time
	if s.cfg.Heartbeat > 0 {
		ticker := time.NewTicker(s.cfg.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	results := s.agent.Stream(ctx, tasks)
	writable := true
	for results != nil {
		select {
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if !batch.Results.Add(res) {
				log.WithField("task", res.ID).Warn("duplicate result dropped")
				continue
			}
			if writable {
				if err := sw.WriteJSON(res); err != nil {
					log.WithError(err).Warn("client gone, continuing without writes")
					writable = false
				}
			}
		case <-tick:
			if writable && sw.Ping() != nil {
				writable = false
			}
		}
	}
	batch.Finish()
	if writable {
		_ = sw.Done()
	}
	log.WithField("results", batch.Results.Len()).Info("batch streamed")
}

func (s *Server) collectBatch(w http.ResponseWriter, r *http.Request, tasks []generator.Task) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StreamTimeout)
	defer cancel()
	results := s.agent.Collect(ctx, tasks)
	writeJSON(w, http.StatusOK, collectResp{
		Success:     true,
		Results:     results,
		GeneratedAt: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleBatchByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/batches/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	batch, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, batchResp{
		Success: true,
		BatchID: batch.ID,
		Kind:    batch.Kind,
		Size:    batch.Size,
		Done:    batch.Done(),
		Results: batch.Results.Sorted(),
	})
}

// --- Single-call handlers ---

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateReq
	if !s.decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	text, err := s.agent.Translate(ctx, req.Text)
	if err != nil {
		s.log.WithError(err).Error("translation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "translatedText": text})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if !s.decode(w, r, &req) {
		return
	}
	reviewer := req.Reviewer
	if reviewer == "" {
		reviewer = s.cfg.Review.Reviewer
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	report, err := s.agent.Review(ctx, req.Content, reviewer)
	if err != nil {
		s.log.WithError(err).Error("review failed")
		var pe *generator.ParseError
		if errors.As(err, &pe) {
			writeError(w, http.StatusInternalServerError, "분석 결과 파싱 실패")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "review": report})
}

func (s *Server) handleIDPhoto(w http.ResponseWriter, r *http.Request) {
	var req idPhotoReq
	if !s.decode(w, r, &req) {
		return
	}
	mime, data, err := imaging.ParseDataURI(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	background := req.BackgroundColor
	if background == "" {
		background = imaging.DefaultBackground
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StreamTimeout)
	defer cancel()
	images, err := s.photos.Generate(ctx, imaging.ImageRequest{
		MIMEType:   mime,
		Data:       data,
		Outfit:     req.Outfit,
		Background: background,
	})
	if err != nil {
		s.log.WithError(err).Error("id photo generation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "images": images})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderReq
	if !s.decode(w, r, &req) {
		return
	}
	html, err := render.ToHTML(req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, renderResp{Success: true, HTML: html, Sections: render.Split(req.Content)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Helpers ---

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(v, err))
		return false
	}
	return true
}

// validationMessage prefers the msg tag of the first failing field.
func validationMessage(v any, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fe.Field() + " is invalid (" + fe.Tag() + ")"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Success: false, Error: msg})
}
