package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/demo"
	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/inject"
	"github.com/MrSnakeDoc/demogen/internal/install"
	"github.com/MrSnakeDoc/demogen/internal/integration"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// DemoService is the demo workflow exposed over HTTP.
type DemoService interface {
	Generate(ctx context.Context, rawURL string) (*demo.Draft, error)
	Preview(ctx context.Context, in domain.DemoInput) (inject.Result, error)
	Save(ctx context.Context, in domain.DemoInput) (*domain.DemoConfig, bool, error)
	Render(ctx context.Context, id string) (inject.Result, *domain.DemoConfig, error)
	Get(ctx context.Context, id string) (*domain.DemoConfig, error)
	List(ctx context.Context) ([]*domain.DemoConfig, error)
	Delete(ctx context.Context, id string) error
	Snippets(ctx context.Context, id string) (demo.Snippets, error)
	BuildPlugin(ctx context.Context, id, version string, opts integration.PluginOptions) (*integration.Build, error)
	PluginStatus(ctx context.Context, partnerID, version string) (*integration.BuildStatus, error)
}

type Installer interface {
	Confirm(ctx context.Context, publication string) (install.Outcome, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Components describes which optional collaborators are live, for /api/infra.
type Components struct {
	LLMProvider     string
	Strategy        string
	AIPlacement     bool
	InlineCSS       bool
	BrowserFallback bool
	Mail            bool
	Sheets          bool
	PluginBuilds    bool
}

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	AllowedHosts      []string      // Host headers allowed on admin endpoints
	AllowedCIDRS      []string      // IPs allowed on admin endpoints (delete, readyz, infra)
	TrustProxy        bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	InstallRateBurst  int           // per-IP burst on the install ping
	InstallRatePerMin int           // per-IP refill on the install ping
	PublicBaseURL     string        // where demos are rendered; pings from this origin are ignored
	Demos             DemoService   // demo workflow
	Installs          Installer     // install confirmation
	Player            http.Handler  // serves the bootstrap script
	Store             Pinger        // readiness probe
	ReloadTrigger     chan struct{} // nil when no strategy file is configured
	Components        Components
}
