// Package server exposes the latest frame of a stream over HTTP.
package server

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/ugparu/y4mstream"
	"github.com/ugparu/y4mstream/utils/lifecycle"
	"github.com/ugparu/y4mstream/utils/logger"
	"github.com/ugparu/y4mstream/utils/screenshoter"
)

// SeqHeader carries the sequence number of the returned frame.
const SeqHeader = "X-Frame-Seq"

const readHeaderTimeout = 5 * time.Second

// Server is an HTTP preview server for a single stream.
type Server struct {
	lifecycle.ServiceManager[*Server]
	server *http.Server
	router *gin.Engine
	store  screenshoter.FrameStore
	shots  screenshoter.Screenshoter
	frames sync.Pool
}

// HeaderResponse is the JSON body of GET /header.
type HeaderResponse struct {
	Format  string  `json:"format"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	FPS     float64 `json:"fps"`
	BodyLen int     `json:"body_len"`
	Seq     int64   `json:"seq"`
}

// New creates a server listening on addr once started.
func New(addr string, store screenshoter.FrameStore, shots screenshoter.Screenshoter) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), cors)
	pprof.Register(router)

	s := &Server{
		ServiceManager: nil,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		router: router,
		store:  store,
		shots:  shots,
		frames: sync.Pool{
			New: func() any { return y4mstream.NewFrame() },
		},
	}
	s.ServiceManager = lifecycle.NewDefaultManager(s)

	router.GET("/header", s.getHeader)
	router.GET("/frame", s.getFrame)
	router.GET("/frame.jpg", s.getJPEG)

	logger.Debug(s, "Initialized and set up")
	return s
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Writer.Header().Set("Access-Control-Expose-Headers", SeqHeader)
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Next()
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts listening in the background. Done is closed once the server
// stops serving and Err reports why it failed.
func (s *Server) Serve() error {
	return s.Start(func(srv *Server) error {
		ln, err := net.Listen("tcp", srv.server.Addr)
		if err != nil {
			return err
		}
		logger.Infof(srv, "Listening on %s", ln.Addr().String())
		go func() {
			serveErr := srv.server.Serve(ln)
			if errors.Is(serveErr, http.ErrServerClosed) {
				serveErr = nil
			} else if serveErr != nil {
				logger.Error(srv, serveErr.Error())
			}
			srv.Stopped(serveErr)
		}()
		return nil
	})
}

// Close_ stops the HTTP server.
func (s *Server) Close_() { //nolint: revive
	logger.Warning(s, "Stopping and closing")
	if err := s.server.Close(); err != nil {
		logger.Warningf(s, "Close failed: %s", err.Error())
	}
}

// String returns a string representation of the server.
func (s *Server) String() string {
	return "HTTP " + s.server.Addr
}

func (s *Server) getHeader(c *gin.Context) {
	hdr := s.store.Header()
	if hdr == nil {
		c.String(http.StatusServiceUnavailable, "stream header not received")
		return
	}
	c.JSON(http.StatusOK, HeaderResponse{
		Format:  hdr.Format.String(),
		Width:   hdr.Width,
		Height:  hdr.Height,
		FPS:     hdr.FrameRate.FPS(),
		BodyLen: hdr.BodyLen(),
		Seq:     s.store.Seq(),
	})
}

func (s *Server) getFrame(c *gin.Context) {
	frame, _ := s.frames.Get().(*y4mstream.Frame)
	defer s.frames.Put(frame)

	s.store.ReadFrame(frame)
	if frame.Empty() {
		c.String(http.StatusServiceUnavailable, "no frame available")
		return
	}
	c.Header(SeqHeader, strconv.FormatInt(frame.Seq, 10))
	c.Data(http.StatusOK, "application/octet-stream", frame.Bytes)
}

func (s *Server) getJPEG(c *gin.Context) {
	seq, jpg, err := s.shots.Screenshot()
	if err != nil {
		if errors.Is(err, screenshoter.ErrNoFrame) {
			c.String(http.StatusServiceUnavailable, err.Error())
			return
		}
		logger.Errorf(s, "Screenshot failed: %s", err.Error())
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Header(SeqHeader, strconv.FormatInt(seq, 10))
	c.Data(http.StatusOK, "image/jpeg", jpg)
}
