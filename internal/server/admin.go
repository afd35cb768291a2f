package server

import (
	"fmt"
	"net/http"
	"time"

	auditdomain "github.com/gavelhq/gavel/internal/audit/domain"
	"github.com/gavelhq/gavel/internal/authorization"
	"github.com/gin-gonic/gin"
)

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !authorization.CanAdminister(identity) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// handleSweep closes expired auctions on demand, outside the scheduled
// interval.
func (s *Server) handleSweep(c *gin.Context) {
	closed, err := s.sweeper.SweepExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

func (s *Server) handleListAuditLogs(c *gin.Context) {
	logs, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListAuditLogRequest{
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		Limit:        queryInt(c, "limit", 100),
		Offset:       queryInt(c, "offset", 0),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: id must be a valid id", ErrInvalidRequest))
		return
	}

	if err := s.identitySvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
