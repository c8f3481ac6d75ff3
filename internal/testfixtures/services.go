package testfixtures

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/teamboard/internal/application"
	"github.com/example/teamboard/internal/persistence"
	"github.com/example/teamboard/internal/persistence/memory"
	"github.com/example/teamboard/internal/storage"
)

// FastArgon2idParams keeps hashing cheap in tests. Hashes stay verifiable by
// application.VerifyPassword because the parameters travel in the PHC string.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// ServiceFactory assists tests with constructing application services over a
// shared store using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Tokens      *IDGenerator
	Store       persistence.Store
	Location    *time.Location
	Latency     *application.Latency
	Logger      *slog.Logger

	once  sync.Once
	repos storage.Repositories
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with an in-memory store, UTC
// dates and a discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Tokens:      NewIDGenerator("token"),
		Location:    time.UTC,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Tokens == nil {
		factory.Tokens = NewIDGenerator("token")
	}
	if factory.Store == nil {
		factory.Store = memory.New()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStore runs the services over store instead of a fresh memory store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithLatency applies a latency profile to every service.
func WithLatency(latency *application.Latency) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Latency = latency
	}
}

// WithLogger overrides the discarding logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Repositories returns the application repositories over the factory store.
func (f *ServiceFactory) Repositories() storage.Repositories {
	f.once.Do(func() {
		f.repos = storage.NewRepositories(f.Store, f.Clock.NowFunc())
	})
	return f.repos
}

// Options returns the ServiceOptions shared by the entity services.
func (f *ServiceFactory) Options() application.ServiceOptions {
	return application.ServiceOptions{
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Location:    f.Location,
		Latency:     f.Latency,
		Logger:      f.Logger,
	}
}

func (f *ServiceFactory) NewTaskService() *application.TaskService {
	return application.NewTaskService(f.Repositories().Tasks, f.Options())
}

func (f *ServiceFactory) NewMeetingService() *application.MeetingService {
	return application.NewMeetingService(f.Repositories().Meetings, f.Options())
}

func (f *ServiceFactory) NewTeamMemberService() *application.TeamMemberService {
	return application.NewTeamMemberService(f.Repositories().Members, f.Options())
}

func (f *ServiceFactory) NewAgendaService() *application.AgendaService {
	return application.NewAgendaService(f.NewTaskService(), f.NewMeetingService(), f.Options())
}

func (f *ServiceFactory) NewCalendarService() *application.CalendarService {
	return application.NewCalendarService(f.NewMeetingService(), f.Options())
}

func (f *ServiceFactory) NewHeatmapService(mode application.HeatmapMode) *application.HeatmapService {
	return application.NewHeatmapService(f.NewTeamMemberService(), f.NewMeetingService(), mode, f.Options())
}

// AuthOptions tunes NewAuthService.
type AuthOptions struct {
	Notifier        application.VerificationNotifier
	SessionTTL      time.Duration
	VerificationTTL time.Duration
}

// NewAuthService builds an auth service with cheap argon2id parameters and
// sequential tokens from f.Tokens.
func (f *ServiceFactory) NewAuthService(opts AuthOptions) *application.AuthService {
	repos := f.Repositories()
	return application.NewAuthService(application.AuthServiceDeps{
		Users:           repos.Users,
		Sessions:        repos.Sessions,
		Tokens:          repos.Tokens,
		Notifier:        opts.Notifier,
		HashPassword:    application.NewArgon2idHasher(FastArgon2idParams),
		IDGenerator:     f.IDGenerator.NextFunc(),
		TokenGenerator:  f.Tokens.NextFunc(),
		Now:             f.Clock.NowFunc(),
		SessionTTL:      opts.SessionTTL,
		VerificationTTL: opts.VerificationTTL,
		Latency:         f.Latency,
		Logger:          f.Logger,
	})
}

// HashPassword hashes password with FastArgon2idParams or fails the test.
func HashPassword(tb testing.TB, password string) string {
	tb.Helper()
	hash, err := application.CreatePasswordHash(password, FastArgon2idParams)
	if err != nil {
		tb.Fatalf("failed to hash password: %v", err)
	}
	return hash
}
