package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/clubhouse/internal/application"
	"github.com/example/clubhouse/internal/hours"
	"github.com/example/clubhouse/internal/persistence/sqlite"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Calendar    *hours.Calendar
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: the reference
// clock, "id-<n>" identifiers, the default week and UTC.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Calendar:    hours.NewCalendar(hours.DefaultWeek()),
		Location:    time.UTC,
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
	if factory.Calendar == nil {
		factory.Calendar = hours.NewCalendar(hours.DefaultWeek())
	}
	if factory.Location == nil {
		factory.Location = time.UTC
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

// WithCalendar overrides the opening-hours calendar.
func WithCalendar(calendar *hours.Calendar) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Calendar = calendar
	}
}

// WithLocation overrides the club time zone.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles every application service over one storage.
type Services struct {
	Users        *application.UserService
	Clubs        *application.ClubService
	Appointments *application.AppointmentService
	Addresses    *application.AddressService
	Consists     *application.ConsistService
	Issues       *application.IssueService
	Notices      *application.NoticeService
}

// Build wires all services against storage.
func (f *ServiceFactory) Build(storage *sqlite.Storage) Services {
	idGen := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()
	return Services{
		Users:        application.NewUserServiceWithLogger(storage, storage, idGen, now, f.Logger),
		Clubs:        application.NewClubServiceWithLogger(storage, storage, idGen, now, f.Logger),
		Appointments: application.NewAppointmentServiceWithLogger(storage, storage, storage, f.Calendar, f.Location, idGen, now, f.Logger),
		Addresses:    application.NewAddressServiceWithLogger(storage, storage, storage, idGen, now, f.Logger),
		Consists:     application.NewConsistServiceWithLogger(storage, storage, storage, idGen, now, f.Logger),
		Issues:       application.NewIssueServiceWithLogger(storage, idGen, now, f.Logger),
		Notices:      application.NewNoticeServiceWithLogger(storage, idGen, now, f.Logger),
	}
}
