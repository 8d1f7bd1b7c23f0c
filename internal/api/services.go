package api

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/core/service"
	"github.com/sirpyerre/blogkeeper/pkg/logger"
)

// Settings are the secrets and lifetimes the services are built with.
type Settings struct {
	JWTSecret   string
	TokenSecret string
	BaseURL     string
	SessionTTL  time.Duration
	LockTTL     time.Duration
	TokenAges   domain.TokenAges
}

// Backends are the infrastructure adapters chosen at startup. Dispatcher may
// be nil when no mail relay is configured; Locker may be nil for a single
// process.
type Backends struct {
	Repos      ports.Repositories
	Dispatcher ports.NotificationDispatcher
	Locker     ports.Locker
}

// NewServices wires every use case over the given backends. Each service
// logs through a child of log tagged with its component name.
func NewServices(s Settings, b Backends, log zerolog.Logger, opts ...service.Option) Services {
	tokens := service.NewTokenService(s.TokenSecret, logger.Tag(log, logger.ComponentTokens), opts...)
	deps := service.WorkflowDeps{
		Repos:    b.Repos,
		Tokens:   tokens,
		Notifier: service.NewNotifier(b.Dispatcher, logger.Tag(log, logger.ComponentNotifications)),
		Links:    service.NewLinks(s.BaseURL),
		Ages:     s.TokenAges,
		Log:      logger.Tag(log, logger.ComponentWorkflow),
	}

	scrubber := service.NewScrubber(b.Repos, logger.Tag(log, logger.ComponentScrubber))
	email := service.NewEmailWorkflow(deps, opts...)
	identity := service.NewIdentityService(b.Repos, scrubber, email, s.JWTSecret, s.SessionTTL,
		logger.Tag(log, logger.ComponentIdentity), opts...)

	return Services{
		Identity:      identity,
		Content:       service.NewContentService(b.Repos, logger.Tag(log, logger.ComponentContent), opts...),
		Archive:       service.NewArchiveEngine(b.Repos, b.Locker, s.LockTTL, logger.Tag(log, logger.ComponentArchive), opts...),
		Email:         email,
		Password:      service.NewPasswordWorkflow(deps),
		Roles:         service.NewRoleWorkflow(deps, opts...),
		Deletion:      service.NewDeletionWorkflow(deps, identity, opts...),
		Support:       service.NewSupportWorkflow(deps, opts...),
		APIKeys:       service.NewAPIKeyService(b.Repos, deps.Notifier, logger.Tag(log, logger.ComponentAPIKeys), opts...),
		Notifications: service.NewNotificationService(b.Repos.Notifications),
		Scrubber:      scrubber,
	}
}
