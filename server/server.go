package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradehook/alert"
	"tradehook/broker"
	"tradehook/config"
	"tradehook/engine"
	"tradehook/intent"
	"tradehook/risk"
)

// Server is the inbound webhook transport. It authenticates the path
// token, filters the source IP, binds the payload, and hands the typed
// alert to the processor. Callers only ever see a terse ok/failed: the
// alert source is an automated system, full detail goes to the audit
// trail and logs.
type Server struct {
	router    *gin.Engine
	processor *engine.Processor
	tokens    map[string]struct{}
	allowNets []*net.IPNet
	allowIPs  map[string]struct{}
}

func New(cfg config.ServerConfig, auth config.AuthConfig, proc *engine.Processor) (*Server, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		processor: proc,
		tokens:    make(map[string]struct{}, len(auth.Tokens)),
		allowIPs:  make(map[string]struct{}, len(auth.AllowedIPs)),
	}
	for _, tok := range auth.Tokens {
		s.tokens[tok] = struct{}{}
	}
	for _, ip := range auth.AllowedIPs {
		s.allowIPs[ip] = struct{}{}
	}
	for _, cidr := range auth.AllowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("parse allowed CIDR %q: %w", cidr, err)
		}
		s.allowNets = append(s.allowNets, network)
	}

	r := gin.New()
	// The allow-list must judge the socket peer. Gin trusts all proxies
	// out of the box, which would let any caller forge an allowed IP
	// through X-Forwarded-For.
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/webhook/:token", s.handleWebhook)

	s.router = r
	return s, nil
}

// Router exposes the underlying handler for http.Server and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) ipAllowed(remote string) bool {
	if _, ok := s.allowIPs[remote]; ok {
		return true
	}
	ip := net.ParseIP(remote)
	if ip == nil {
		return false
	}
	for _, network := range s.allowNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (s *Server) handleWebhook(c *gin.Context) {
	if _, ok := s.tokens[c.Param("token")]; !ok {
		c.JSON(http.StatusForbidden, gin.H{"status": "forbidden"})
		return
	}
	if !s.ipAllowed(c.ClientIP()) {
		c.JSON(http.StatusForbidden, gin.H{"status": "forbidden"})
		return
	}

	var payload alert.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed"})
		return
	}

	a, err := alert.Parse(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed"})
		return
	}

	if _, err := s.processor.Process(c.Request.Context(), a); err != nil {
		c.JSON(statusCode(err), gin.H{"status": "failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusCode keeps the outward answer opaque but distinguishes caller
// mistakes from upstream trouble.
func statusCode(err error) int {
	switch {
	case errors.Is(err, alert.ErrInvalidAlert),
		errors.Is(err, intent.ErrInvalidBracket),
		errors.Is(err, risk.ErrInvalidStopDistance),
		errors.Is(err, risk.ErrZeroUnits):
		return http.StatusBadRequest
	case errors.Is(err, broker.ErrRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
