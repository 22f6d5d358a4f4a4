package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/stats"
	"github.com/smokyabdulrahman/namaz/internal/storage"
)

// maxUpload caps proof and avatar bodies.
const maxUpload = 5 << 20

// dateParam reads ?date=, defaulting to today. It must not be in the future.
func (s *Server) dateParam(ctx *gin.Context) (string, *Error) {
	now := s.now()
	date := ctx.Query("date")
	if date == "" {
		return now.Format(model.DateLayout), nil
	}
	day, err := time.ParseInLocation(model.DateLayout, date, now.Location())
	if err != nil {
		return "", badRequest("date must be YYYY-MM-DD")
	}
	if day.After(now) {
		return "", badRequest("date is in the future")
	}
	return date, nil
}

func prayerParam(ctx *gin.Context) (model.Prayer, *Error) {
	p, err := model.ParsePrayer(ctx.Param("prayer"))
	if err != nil {
		return "", errorFrom(err)
	}
	if !p.Daily() {
		return "", badRequest(p.String() + " cannot be checked off")
	}
	return p, nil
}

// GET /api/me/today
func (s *Server) getToday(ctx *gin.Context, userID string) (any, *Error) {
	date, apiErr := s.dateParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	rec, err := s.store.GetRecord(ctx.Request.Context(), userID, date)
	if err != nil {
		return nil, errorFrom(err)
	}
	return rec, nil
}

// POST /api/me/prayers/:prayer/toggle[?date]
func (s *Server) togglePrayer(ctx *gin.Context, userID string) (any, *Error) {
	p, apiErr := prayerParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	date, apiErr := s.dateParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	res, err := s.tracker.Toggle(ctx.Request.Context(), userID, date, p)
	if err != nil {
		return nil, errorFrom(err)
	}
	return res, nil
}

// readImage buffers a multipart "file" field and reports its sniffed type.
func readImage(ctx *gin.Context) ([]byte, string, *Error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, "", badRequest("multipart field \"file\" is required")
	}
	if fh.Size > maxUpload {
		return nil, "", &Error{Code: http.StatusRequestEntityTooLarge, Message: "file too large"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", badRequest("unreadable upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, "", badRequest("unreadable upload")
	}
	if len(data) > maxUpload {
		return nil, "", &Error{Code: http.StatusRequestEntityTooLarge, Message: "file too large"}
	}
	return data, http.DetectContentType(data), nil
}

// POST /api/me/prayers/:prayer/proof[?date]
func (s *Server) uploadProof(ctx *gin.Context, userID string) (any, *Error) {
	if !s.opts.PhotoProofs || s.storage == nil {
		return nil, errorFrom(model.ErrFeatureDisabled)
	}
	p, apiErr := prayerParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	date, apiErr := s.dateParam(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	data, contentType, apiErr := readImage(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	ext, ok := storage.ExtFor(contentType)
	if !ok {
		return nil, &Error{Code: http.StatusUnsupportedMediaType, Message: "proof must be an image"}
	}

	rctx := ctx.Request.Context()
	if _, err := s.store.EnsureProfile(rctx, userID, ""); err != nil {
		return nil, errorFrom(err)
	}
	url, err := s.storage.Put(rctx, storage.BucketProofs, storage.ProofName(userID, date, p, ext), contentType, bytes.NewReader(data))
	if err != nil {
		return nil, errorFrom(err)
	}
	rec, err := s.store.SetProof(rctx, userID, date, p, url)
	if err != nil {
		return nil, errorFrom(err)
	}
	return gin.H{"url": url, "record": rec}, nil
}

type statsResponse struct {
	stats.Summary
	TotalPrayers int `json:"total_prayers"`
	Completion   int `json:"completion_percent"`
}

// GET /api/me/stats
func (s *Server) getStats(ctx *gin.Context, userID string) (any, *Error) {
	rctx := ctx.Request.Context()
	profile, err := s.store.EnsureProfile(rctx, userID, "")
	if err != nil {
		return nil, errorFrom(err)
	}
	sum, err := s.tracker.Summary(rctx, userID)
	if err != nil {
		return nil, errorFrom(err)
	}
	return statsResponse{
		Summary:      *sum,
		TotalPrayers: profile.TotalPrayers,
		Completion:   profile.CompletionPercent(s.now()),
	}, nil
}

// GET /api/me/qada
func (s *Server) getQada(ctx *gin.Context, userID string) (any, *Error) {
	q, err := s.store.GetQada(ctx.Request.Context(), userID)
	if err != nil {
		return nil, errorFrom(err)
	}
	return gin.H{"counts": q, "total": q.Total()}, nil
}

type qadaRequest struct {
	Prayer string `json:"prayer" binding:"required"`
	Delta  int    `json:"delta" binding:"required,min=-1000,max=1000"`
}

// PATCH /api/me/qada
func (s *Server) adjustQada(ctx *gin.Context, userID string) (any, *Error) {
	var req qadaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(fmt.Sprintf("body must be {\"prayer\": name, \"delta\": non-zero int within ±%d}", model.MaxQadaDelta))
	}
	p, err := model.ParsePrayer(req.Prayer)
	if err != nil {
		return nil, errorFrom(err)
	}
	q, err := s.tracker.AdjustQada(ctx.Request.Context(), userID, p, req.Delta)
	if err != nil {
		return nil, errorFrom(err)
	}
	return gin.H{"counts": q, "total": q.Total()}, nil
}

type profileRequest struct {
	Name string `json:"name" binding:"required,max=80"`
}

// PATCH /api/me/profile
func (s *Server) updateProfile(ctx *gin.Context, userID string) (any, *Error) {
	var req profileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest("name is required and at most 80 characters")
	}
	rctx := ctx.Request.Context()
	if _, err := s.store.EnsureProfile(rctx, userID, ""); err != nil {
		return nil, errorFrom(err)
	}
	p, err := s.store.UpdateProfile(rctx, userID, &req.Name, nil)
	if err != nil {
		return nil, errorFrom(err)
	}
	return p, nil
}

type privacyRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

// PUT /api/me/privacy
func (s *Server) setPrivacy(ctx *gin.Context, userID string) (any, *Error) {
	var req privacyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, badRequest("is_public is required")
	}
	rctx := ctx.Request.Context()
	if _, err := s.store.EnsureProfile(rctx, userID, ""); err != nil {
		return nil, errorFrom(err)
	}
	if err := s.store.SetPublic(rctx, userID, *req.IsPublic); err != nil {
		return nil, errorFrom(err)
	}
	return gin.H{"is_public": *req.IsPublic}, nil
}

// POST /api/me/avatar
func (s *Server) uploadAvatar(ctx *gin.Context, userID string) (any, *Error) {
	if s.storage == nil {
		return nil, errorFrom(model.ErrFeatureDisabled)
	}
	data, _, apiErr := readImage(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	img, err := storage.NormalizeAvatar(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Code: http.StatusUnsupportedMediaType, Message: "avatar must be a JPEG, PNG or GIF image"}
	}

	rctx := ctx.Request.Context()
	if _, err := s.store.EnsureProfile(rctx, userID, ""); err != nil {
		return nil, errorFrom(err)
	}
	url, err := s.storage.Put(rctx, storage.BucketAvatars, storage.AvatarName(userID), "image/jpeg", img)
	if err != nil {
		return nil, errorFrom(err)
	}
	p, err := s.store.UpdateProfile(rctx, userID, nil, &url)
	if err != nil {
		return nil, errorFrom(err)
	}
	return p, nil
}

// GET /api/me/achievements
func (s *Server) myAchievements(ctx *gin.Context, userID string) (any, *Error) {
	list, err := s.achievementsFor(ctx, userID)
	if err != nil {
		return nil, errorFrom(err)
	}
	return list, nil
}
