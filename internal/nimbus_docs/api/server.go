package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nimbus-docs/internal/middleware/logger"
	"nimbus-docs/internal/nimbus_docs/descriptor"
	"nimbus-docs/internal/nimbus_docs/helper"
	"nimbus-docs/internal/nimbus_docs/model"
	"nimbus-docs/internal/nimbus_docs/processor"
	"nimbus-docs/internal/nimbus_docs/session"
	"nimbus-docs/internal/nimbus_docs/view"
)

const sessionCookie = "nimbus_session"

// maxUploadSize 上传描述文件的大小上限
var maxUploadSize int64 = 10 << 20

// errUploadTooLarge 上传文件超过 maxUploadSize
var errUploadTooLarge = errors.New("upload exceeds size limit")

var internalError = gin.H{"error": "Internal Server Error"}

// HistoryReader 读取调用记录；为 nil 时不注册 /api/history
type HistoryReader interface {
	RecentRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
}

type Server struct {
	Log        *zap.Logger
	Proxy      *processor.Processor
	Sessions   session.Store
	History    HistoryReader
	SessionTTL time.Duration // cookie 有效期，0 为浏览器会话 cookie

	preload atomic.Pointer[[]model.EndpointDescriptor]
}

// SetPreload 设置新会话的初始描述列表，可并发调用
func (s *Server) SetPreload(descs []model.EndpointDescriptor) {
	cp := append([]model.EndpointDescriptor(nil), descs...)
	s.preload.Store(&cp)
}

func (s *Server) preloaded() []model.EndpointDescriptor {
	if p := s.preload.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.Gin(s.Log), logger.Recovery(s.Log))
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", s.index)
	r.POST("/upload", s.upload)
	r.POST("/reset", s.reset)
	r.POST("/endpoints/:index/run", s.runEndpoint)

	r.POST("/api/runApi", s.runAPI)
	r.GET("/api/descriptors", s.listDescriptors)
	if s.History != nil {
		r.GET("/api/history", s.listHistory)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// ListenAndServe 启动 HTTP 服务，ctx 取消后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("NimbusDocs is running", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runAPI 代理入口：{endpoint, method, paramData?, queryData?, bodyData?}
// 任何失败都返回 500 与固定错误信息，细节只写日志
func (s *Server) runAPI(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.Log.Error("Failed to read proxy request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}
	req, err := processor.DecodeRequest(raw)
	if err != nil {
		s.Log.Error("Failed to decode proxy request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}

	res, err := s.Proxy.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Body)
}

func (s *Server) listDescriptors(c *gin.Context) {
	_, ws, err := s.workspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}
	out := ws.Descriptors
	if out == nil {
		out = []model.EndpointDescriptor{}
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) listHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := s.History.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		s.Log.Error("Failed to list run history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs, "limit": helper.ClampLimit(limit)})
}

func (s *Server) index(c *gin.Context) {
	_, ws, err := s.workspace(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.HTML(http.StatusOK, "index.tmpl", newPage(ws))
}

func (s *Server) upload(c *gin.Context) {
	id, ws, err := s.workspace(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		// 未选择文件：保持原状
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err := descriptor.CheckUpload(fh.Filename, fh.Header.Get("Content-Type")); err != nil {
		ws.Fail(err)
	} else if data, err := readUpload(fh); errors.Is(err, errUploadTooLarge) {
		s.Log.Warn("Upload exceeds size limit",
			zap.String("file", fh.Filename),
			zap.Int64("size", fh.Size),
			zap.Int64("limit", maxUploadSize),
		)
		ws.Fail(descriptor.ErrInvalidFormat)
	} else if err != nil {
		s.Log.Warn("Failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
		ws.Fail(descriptor.ErrInvalidFormat)
	} else if err := ws.Upload(data); err != nil {
		s.Log.Info("Rejected descriptor upload", zap.String("file", fh.Filename), zap.Error(err))
	} else {
		s.Log.Info("Loaded descriptors",
			zap.String("file", fh.Filename),
			zap.Int("count", len(ws.Descriptors)),
		)
	}

	if !s.save(c, id, ws) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) reset(c *gin.Context) {
	id, ws, err := s.workspace(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	ws.Reset()
	if !s.save(c, id, ws) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// runEndpoint 保存表单值并执行一次代理调用，结果写回工作区
func (s *Server) runEndpoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	id, ws, err := s.workspace(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	d, err := ws.Descriptor(index)
	if err != nil {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	for j, f := range d.Fields {
		if v := c.PostForm(inputName(j)); v != "" {
			_ = ws.SetValue(index, f.Role, f.Name, v)
		} else {
			_ = ws.UnsetValue(index, f.Role, f.Name)
		}
	}
	req, err := ws.RequestFor(index)
	if err != nil {
		s.Log.Error("Failed to build proxy request", zap.Int("index", index), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	ws.SetResponse(index, "null")
	generation := ws.Generation
	if !s.save(c, id, ws) {
		return
	}

	text := session.RunFailedText
	if res, err := s.Proxy.Run(c.Request.Context(), req); err == nil {
		text = view.FormatResponse(res.Body)
	}

	// 调用期间工作区可能已被重置或替换
	ws, err = s.Sessions.Load(c.Request.Context(), id)
	if err != nil {
		s.Log.Warn("Session vanished during run", zap.String("session", id), zap.Error(err))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if ws.Generation == generation {
		ws.SetResponse(index, text)
		if !s.save(c, id, ws) {
			return
		}
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/#endpoint-%d", index))
}

// workspace 读取（或新建）当前浏览器的工作区
func (s *Server) workspace(c *gin.Context) (string, *session.Workspace, error) {
	id, err := c.Cookie(sessionCookie)
	if err == nil {
		if _, perr := uuid.Parse(id); perr != nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.NewString()
		c.SetCookie(sessionCookie, id, int(s.SessionTTL.Seconds()), "/", "", false, true)
		return id, session.New(s.preloaded()), nil
	}

	ws, err := s.Sessions.Load(c.Request.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		return id, session.New(s.preloaded()), nil
	}
	if err != nil {
		s.Log.Error("Failed to load session", zap.String("session", id), zap.Error(err))
		return "", nil, err
	}
	return id, ws, nil
}

func (s *Server) save(c *gin.Context, id string, ws *session.Workspace) bool {
	if err := s.Sessions.Save(c.Request.Context(), id, ws); err != nil {
		s.Log.Error("Failed to save session", zap.String("session", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return false
	}
	return true
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxUploadSize {
		return nil, errUploadTooLarge
	}
	return data, nil
}
