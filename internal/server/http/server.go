package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edulabs/labgate/internal/errs"
	"github.com/edulabs/labgate/internal/model"
	"github.com/edulabs/labgate/internal/repository"
	"github.com/edulabs/labgate/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	keys       service.ResourceKeyService
	attendance service.AttendanceService
	procedure  service.ProcedureService
	steps      repository.StepRepository
	log        *zap.Logger
}

// New constructs a Server with injected services.
func New(keys service.ResourceKeyService, attendance service.AttendanceService, procedure service.ProcedureService, steps repository.StepRepository, log *zap.Logger) *Server {
	return &Server{keys: keys, attendance: attendance, procedure: procedure, steps: steps, log: log}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router(signKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(Recover(s.log), Logging(s.log))

	api := r.Group("/api", Auth(signKey))
	api.POST("/attendance/session", s.openAttendanceSession)
	api.POST("/attendance/scan", s.scanAttendance)
	api.POST("/resources/:kind/:id/key", s.issueDownloadKey)
	api.GET("/download", s.download)
	api.POST("/videos/:id/playback", s.issuePlaybackKey)
	api.GET("/playback", s.playback)
	api.GET("/sessions/:sessionID/steps/:stepID/access", s.checkStepAccess)
	api.POST("/steps/:stepID/watched", s.markWatched)
	return r
}

// fail maps sentinel errors to HTTP responses. Signature failures look like
// invalid tokens to the client but are logged distinctly for audit;
// configuration errors are logged loudly since students cannot fix them.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidSignature):
		s.log.Warn("token signature mismatch", zap.Error(err), zap.String("client", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
	case errors.Is(err, errs.ErrInvalidToken), errors.Is(err, errs.ErrMalformedToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
	case errors.Is(err, errs.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "expired"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrNoEnrollment):
		c.JSON(http.StatusForbidden, gin.H{"error": "no class enrollment"})
	case errors.Is(err, errs.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already recorded"})
	case errors.Is(err, errs.ErrConfiguration):
		s.log.Error("configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "misconfigured"})
	default:
		s.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}

type openSessionRequest struct {
	ClassCode    string `json:"class_code" binding:"required"`
	ExperimentID int64  `json:"experiment_id" binding:"required"`
}

func (s *Server) openAttendanceSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, dur, err := s.attendance.OpenSession(c.Request.Context(), Identity(c), req.ClassCode, req.ExperimentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":              tok,
		"expires_in_seconds": int(dur / time.Second),
	})
}

type scanRequest struct {
	Token string `json:"token" binding:"required"`
}

func (s *Server) scanAttendance(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.attendance.RecordScan(c.Request.Context(), req.Token, Identity(c), c.ClientIP())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           res.Status,
		"attended_at":      res.AttendedAt,
		"class_code":       res.ClassCode,
		"experiment_id":    res.ExperimentID,
		"course_id":        res.CourseID,
		"already_recorded": res.AlreadyRecorded,
	})
}

var kindByPath = map[string]model.ResourceKind{
	"video":      model.KindVideo,
	"submission": model.KindSubmissionFile,
	"attachment": model.KindAttachment,
}

func (s *Server) issueDownloadKey(c *gin.Context) {
	kind, ok := kindByPath[c.Param("kind")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resource kind"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad resource id"})
		return
	}
	key, err := s.keys.IssueDownloadKey(c.Request.Context(), kind, id, Identity(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (s *Server) download(c *gin.Context) {
	loc, err := s.keys.ResolveDownloadKey(c.Request.Context(), c.Query("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.FileAttachment(loc.FilePath, loc.DisplayName)
}

type playbackRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

func (s *Server) issuePlaybackKey(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad video id"})
		return
	}
	var req playbackRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := s.keys.IssuePlaybackKey(c.Request.Context(), id, Identity(c), time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (s *Server) playback(c *gin.Context) {
	info, err := s.keys.ResolvePlaybackKey(c.Request.Context(), c.Query("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.File(info.Location.FilePath)
}

func (s *Server) checkStepAccess(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("sessionID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad session id"})
		return
	}
	stepID, err := strconv.ParseInt(c.Param("stepID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad step id"})
		return
	}
	classCode := c.Query("class")
	if classCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing class"})
		return
	}
	step, err := s.steps.GetStep(c.Request.Context(), stepID)
	if err != nil {
		s.fail(c, err)
		return
	}
	decision, err := s.procedure.CheckAccessible(c.Request.Context(), sessionID, classCode, Identity(c), *step)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

type watchedRequest struct {
	ClassCode string `json:"class_code" binding:"required"`
}

func (s *Server) markWatched(c *gin.Context) {
	stepID, err := strconv.ParseInt(c.Param("stepID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad step id"})
		return
	}
	var req watchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.procedure.MarkVideoWatched(c.Request.Context(), Identity(c), req.ClassCode, stepID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
