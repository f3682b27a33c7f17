package deps

import (
	"time"

	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/portal"
	"github.com/MrSnakeDoc/portal/internal/session"
	"github.com/MrSnakeDoc/portal/internal/store"
	"github.com/MrSnakeDoc/portal/internal/version"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	AllowedHosts []string           // Host headers allowed to access the server
	AllowedCIDRS []string           // IPs allowed to access readyz/infra endpoints
	TrustProxy   bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Controller   *portal.Controller // application controller
	Gate         *session.Gate      // restores sessions from the cookie
	Store        store.Store        // key-value backend, pinged by readyz/infra
	CookieSecure bool               // Secure flag on the session cookie
	SessionTTL   time.Duration      // cookie Max-Age
	LoginBurst   int                // login attempts allowed at once per IP
	LoginPerMin  int                // login attempts refilled per minute per IP
}
