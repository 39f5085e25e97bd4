package deps

import (
	"context"
	"time"

	"github.com/CDTO-DENKART/app-visualizer/internal/cache"
	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/domains"
	"github.com/CDTO-DENKART/app-visualizer/internal/httpserver/mw"
	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	redisstore "github.com/CDTO-DENKART/app-visualizer/internal/store/redis"
)

// Snapshots serves the current snapshot.
type Snapshots interface {
	Get(ctx context.Context) *domain.Snapshot
	Status() cache.Status
}

// History reads persisted snapshots.
type History interface {
	History(ctx context.Context, limit int) ([]redisstore.Summary, error)
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)
	Ping(ctx context.Context) error
}

// Spawner starts detached processes.
type Spawner interface {
	Spawn(req runner.SpawnRequest) (int, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // IPs allowed to access the API
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	Snapshots     Snapshots          // snapshot cache
	Domains       *domains.Directory // domain directory
	History       History            // nil when redis persistence is disabled
	ReloadTrigger chan struct{}      // Channel to trigger a manual collection

	Spawner   Spawner            // nil disables POST /api/run
	RateLimit mw.RateLimitConfig // limits POST /api/run per client
}
