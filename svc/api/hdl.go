package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/unicode/norm"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/lim"
	"github.com/viralburst/pastebin/svc/svc"
	"github.com/viralburst/pastebin/svc/util"
)

type Hdl struct {
	creator   *svc.Creator
	retriever *svc.Retriever
	tracker   analytics.Tracker
	cfg       *cfg.Cfg
}

type CreateReq struct {
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	Language    string `json:"language,omitempty"`
	Expires     string `json:"expires,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	OneTimeView *bool  `json:"one_time_view,omitempty"`
}

func (h *Hdl) clientHash(r *http.Request) string {
	realIP := lim.GetRealIP(r, h.cfg.TrustedProxies)
	return util.ClientHash([]byte(h.cfg.ClientHashKey.Value()), realIP)
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.RequestID(r.Context())
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warn().Str("content_type", contentType).Msg("invalid Content-Type header")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "expected Content-Type: application/json",
			"request_id": requestID,
		})
		return
	}
	limit := h.cfg.MaxContentSize * 2
	if clHeader := r.Header.Get("Content-Length"); clHeader != "" {
		cl, err := strconv.ParseInt(clHeader, 10, 64)
		if err != nil || cl < 0 {
			writeErr(w, domain.ErrInvalidRequest, requestID)
			return
		}
		if cl > limit {
			writeErr(w, domain.ErrContentTooLarge, requestID)
			return
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	var req CreateReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("invalid request body")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}

	oneTime := true
	if req.OneTimeView != nil {
		oneTime = *req.OneTimeView
	}
	clientHash := h.clientHash(r)
	desc, err := h.creator.Create(r.Context(), svc.CreateInput{
		Title:       sanitizeText(req.Title),
		Content:     sanitizeText(req.Content),
		Language:    req.Language,
		Expires:     req.Expires,
		ExpiresIn:   req.ExpiresIn,
		OneTimeView: oneTime,
		ClientHash:  clientHash,
	})
	if err != nil {
		if domain.Status(err) < 500 {
			writeErr(w, err, requestID)
			return
		}
		log.Error().Err(err).Msg("failed to create paste")
		h.tracker.TrackError(r.Context(), "create_failed", clientHash)
		writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(desc)
}

type pasteResp struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
	Consumed  bool   `json:"consumed"`
}

// GetPaste delivers content. One-time pastes are consumed here; expired and
// missing pastes are both 404 on this path (the meta/preview paths expose
// the difference).
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.RequestID(r.Context())
	pasteID := chi.URLParam(r, "id")
	paste, err := h.retriever.Retrieve(r.Context(), pasteID, h.clientHash(r))
	if err != nil {
		h.writeRetrieveErr(w, r, err, pasteID, requestID)
		return
	}
	log.Info().
		Str("paste_id", pasteID).
		Str("client_ip", util.RedactIP(r.RemoteAddr)).
		Bool("consumed", paste.Consumed).
		Msg("paste retrieved")
	json.NewEncoder(w).Encode(pasteResp{
		ID:        paste.ID,
		Title:     paste.Title,
		Content:   paste.Content,
		Language:  paste.Language,
		Size:      paste.Size,
		CreatedAt: paste.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Consumed:  paste.Consumed,
	})
}

type metaResp struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Language    string  `json:"language"`
	Size        int64   `json:"size"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	OneTimeView bool    `json:"one_time_view"`
}

func toMeta(p *domain.Paste) metaResp {
	m := metaResp{
		ID:          p.ID,
		Title:       p.Title,
		Language:    p.Language,
		Size:        p.Size,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		OneTimeView: p.OneTimeView,
	}
	if p.ExpiresAt != nil {
		s := p.ExpiresAt.Format("2006-01-02T15:04:05Z07:00")
		m.ExpiresAt = &s
	}
	return m
}

func (h *Hdl) GetMeta(w http.ResponseWriter, r *http.Request) {
	requestID := util.RequestID(r.Context())
	pasteID := chi.URLParam(r, "id")
	paste, err := h.retriever.Meta(r.Context(), pasteID)
	if err != nil {
		h.writeRetrieveErr(w, r, err, pasteID, requestID)
		return
	}
	json.NewEncoder(w).Encode(toMeta(paste))
}

func (h *Hdl) GetPreview(w http.ResponseWriter, r *http.Request) {
	requestID := util.RequestID(r.Context())
	pasteID := chi.URLParam(r, "id")
	paste, err := h.retriever.Preview(r.Context(), pasteID)
	if err != nil {
		h.writeRetrieveErr(w, r, err, pasteID, requestID)
		return
	}
	json.NewEncoder(w).Encode(struct {
		metaResp
		Preview string `json:"preview"`
	}{toMeta(paste), paste.Content})
}

func (h *Hdl) GetQR(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.RequestID(r.Context())
	pasteID := chi.URLParam(r, "id")
	if _, err := h.retriever.Meta(r.Context(), pasteID); err != nil {
		h.writeRetrieveErr(w, r, err, pasteID, requestID)
		return
	}
	shareURL := strings.TrimRight(h.cfg.BaseURL, "/") + "/" + pasteID
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("paste_id", pasteID).Msg("failed to encode QR")
		writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Hdl) DeletePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.RequestID(r.Context())
	pasteID := chi.URLParam(r, "id")
	if err := h.retriever.Delete(r.Context(), pasteID); err != nil {
		log.Error().Err(err).Str("paste_id", pasteID).Msg("failed to delete paste")
		writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (h *Hdl) GetExpiryOptions(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(domain.ExpiryOptions())
}

func (h *Hdl) GetStats(w http.ResponseWriter, r *http.Request) {
	requestID := util.RequestID(r.Context())
	stats, err := h.tracker.GetStats(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to fetch stats")
		writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (h *Hdl) writeRetrieveErr(w http.ResponseWriter, r *http.Request, err error, pasteID, requestID string) {
	if errors.Is(err, domain.ErrPasteNotFound) || errors.Is(err, domain.ErrPasteExpired) {
		writeErr(w, err, requestID)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Str("paste_id", pasteID).Msg("retrieval failed")
	h.tracker.TrackError(r.Context(), "retrieve_failed", h.clientHash(r))
	writeErr(w, domain.ErrInternalServer, requestID)
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	w.WriteHeader(statusCode)
	resp := domain.ToResp(err)
	if statusCode >= 500 {
		resp.Error.Msg = "internal server error"
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      resp.Error,
		"request_id": requestID,
	})
}

// sanitizeText NFC-normalizes and strips control characters other than
// newline, carriage return and tab. Content is stored verbatim otherwise.
func sanitizeText(s string) string {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
