package backend

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"letschat/internal/errs"
	"letschat/internal/model"
)

// maxUploadBytes caps multipart upload bodies.
const maxUploadBytes = 32 << 20

type handler struct {
	svc    *Service
	logger *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createChatRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Authenticate(req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]model.User{"user": user})
}

func (h *handler) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.ListChats()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	respondJSON(w, http.StatusOK, chats)
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListMessages(chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var in MessageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.svc.PostMessage(chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *handler) createChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ParticipantIDs) < 2 {
		respondError(w, http.StatusBadRequest, "at least 2 participants required")
		return
	}

	chat, created, err := h.svc.CreateChat(req.ParticipantIDs)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, chat)
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable file")
		return
	}

	result := h.svc.SaveUpload(header.Filename, header.Header.Get("Content-Type"), data)
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}
