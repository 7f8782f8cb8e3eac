package deps

import (
	"time"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/storage"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Library   *library.Library // bookmark collection and query state
	Session   *ai.Session      // the single AI conversation served over HTTP

	Backend string              // configured storage backend name
	Store   *storage.BestEffort // nil when the backend could not be opened
}
