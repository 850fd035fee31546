package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/isdelr/sample-app/internal/monitoring"
	"github.com/isdelr/sample-app/internal/services"
	"github.com/isdelr/sample-app/internal/views"
	"github.com/rs/zerolog/log"
)

// ClientCounter reports how many live feed sockets are open.
type ClientCounter interface {
	ClientCount() int
}

// AdminHandler shows site-wide statistics to admins.
type AdminHandler struct {
	*Pages
	users   services.UserServiceProvider
	stats   monitoring.StatsProvider
	clients ClientCounter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(p *Pages, users services.UserServiceProvider, stats monitoring.StatsProvider, clients ClientCounter) *AdminHandler {
	return &AdminHandler{Pages: p, users: users, stats: stats, clients: clients}
}

// Stats renders user and micropost totals alongside host load.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	content := views.AdminStatsContent{FeedClients: h.clients.ClientCount()}

	var err error
	if content.Users, err = h.users.CountUsers(ctx); err != nil {
		h.serverError(w, r, err)
		return
	}
	if content.Microposts, err = h.microposts.CountMicroposts(ctx); err != nil {
		h.serverError(w, r, err)
		return
	}

	statsCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	host, err := h.stats.Collect(statsCtx)
	content.Goroutines = host.Goroutines
	if err != nil {
		log.Warn().Err(err).Msg("Host statistics unavailable")
	} else {
		content.HostAvailable = true
		content.CPUPercent = host.CPUPercent
		content.MemUsedPercent = host.MemUsedPercent
		now := time.Now()
		content.Uptime = strings.TrimSpace(humanize.RelTime(now.Add(-host.Uptime), now, "", ""))
	}

	h.render(w, r, http.StatusOK, "admin_stats", &views.Data{Title: "Site stats", Content: content})
}
