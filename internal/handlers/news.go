package handlers

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pliu/newsportal/internal/comments"
	"github.com/pliu/newsportal/internal/news"
	"github.com/pliu/newsportal/internal/session"
	"github.com/rs/zerolog"
)

type ImportRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type NewsHandler struct {
	Catalog  *news.Catalog
	Sessions *session.Service
	Comments *comments.Registry
	Log      *zerolog.Logger

	// Feeds lists the only URLs Import will fetch.
	Feeds []string
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Catalog.List(r.URL.Query().Get("section"))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	article, err := h.Catalog.Get(id)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// Import refreshes one of the configured feeds for a logged-in user.
func (h *NewsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	if _, err := h.Sessions.Current(r.Context(), profileID(r)); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	if !slices.Contains(h.Feeds, req.URL) {
		writeError(w, http.StatusForbidden, "feed is not configured")
		return
	}
	added, err := h.Catalog.Import(r.Context(), req.URL)
	if err != nil {
		h.Log.Warn().Err(err).Str("url", req.URL).Msg("feed import failed")
		writeError(w, http.StatusBadGateway, "feed import failed")
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// Saved lists the articles the current user bookmarked.
func (h *NewsHandler) Saved(w http.ResponseWriter, r *http.Request) {
	user, err := h.Sessions.Current(r.Context(), profileID(r))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Catalog.Lookup(user.SavedNews))
}

func (h *NewsHandler) ToggleSaved(w http.ResponseWriter, r *http.Request) {
	id, ok := h.article(w, r)
	if !ok {
		return
	}
	user, err := h.Sessions.ToggleSaved(r.Context(), profileID(r), id)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// RemoveSaved accepts ids the catalog no longer knows so stale bookmarks can
// still be dropped.
func (h *NewsHandler) RemoveSaved(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	user, err := h.Sessions.RemoveSaved(r.Context(), profileID(r), id)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

func (h *NewsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.article(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Comments.List(profileID(r), id))
}

func (h *NewsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.article(w, r)
	if !ok {
		return
	}
	var req AddCommentRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	c, err := h.Comments.Add(profileID(r), id, req.Text)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *NewsHandler) LikeComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.article(w, r)
	if !ok {
		return
	}
	commentID, err := strconv.ParseInt(mux.Vars(r)["commentID"], 10, 64)
	if err != nil {
		fail(w, r, h.Log, badRequest{err})
		return
	}
	c, found := h.Comments.Like(profileID(r), id, commentID)
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *NewsHandler) ResetComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.article(w, r)
	if !ok {
		return
	}
	h.Comments.Reset(profileID(r), id)
	w.WriteHeader(http.StatusNoContent)
}

// article resolves {id} to a known article, answering the request otherwise.
func (h *NewsHandler) article(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := intVar(r, "id")
	if err == nil {
		_, err = h.Catalog.Get(id)
	}
	if err != nil {
		fail(w, r, h.Log, err)
		return 0, false
	}
	return id, true
}
