package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
)

// DebugModule exposes expvar counters, including OTP issue/accept/reject totals.
type DebugModule struct {
	Limiter gin.HandlerFunc
}

func NewDebugModule(limiter gin.HandlerFunc) *DebugModule { return &DebugModule{Limiter: limiter} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars", chain(m.Limiter, gin.WrapH(expvar.Handler()))...)
}
