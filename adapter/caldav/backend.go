// Package caldav serves task lists as read-only CalDAV calendars.
package caldav

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// Prefix is where the handler is mounted.
const Prefix = "/caldav"

const homePath = Prefix + "/calendars/"

var errReadOnly = errors.New("calendar is read-only")

// ListSource lists the task lists a user belongs to.
type ListSource interface {
	Handle(ctx context.Context, query queries.ListTaskListsQuery) ([]queries.TaskListDTO, error)
}

// FeedSource loads the tasks and occurrences of one list.
type FeedSource interface {
	Load(ctx context.Context, query queries.ExportCalendarQuery) (*queries.CalendarFeed, error)
}

// CalendarBuilder turns tasks into an iCalendar document.
type CalendarBuilder interface {
	Calendar(name string, tasks []*task.Task, occurrences []*task.Occurrence) (*ical.Calendar, error)
}

// Config holds the dependencies of the backend.
type Config struct {
	Lists     ListSource
	Feeds     FeedSource
	Calendars CalendarBuilder
	// UserID is the acting user for every request.
	UserID uuid.UUID
	Logger *slog.Logger
}

// Backend exposes every list the user belongs to as a calendar holding one
// VTODO object per task. Writes are refused with 403.
type Backend struct {
	lists     ListSource
	feeds     FeedSource
	calendars CalendarBuilder
	userID    uuid.UUID
	logger    *slog.Logger
}

// NewBackend creates a read-only CalDAV backend.
func NewBackend(cfg Config) *Backend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		lists:     cfg.Lists,
		feeds:     cfg.Feeds,
		calendars: cfg.Calendars,
		userID:    cfg.UserID,
		logger:    logger,
	}
}

// NewHandler returns the CalDAV handler to mount at Prefix.
func NewHandler(cfg Config) http.Handler {
	return &caldav.Handler{Backend: NewBackend(cfg)}
}

// CurrentUserPrincipal implements webdav.UserPrincipalBackend.
func (b *Backend) CurrentUserPrincipal(ctx context.Context) (string, error) {
	return Prefix + "/", nil
}

// CalendarHomeSetPath returns the collection holding every calendar.
func (b *Backend) CalendarHomeSetPath(ctx context.Context) (string, error) {
	return homePath, nil
}

// ListCalendars returns one calendar per list the user belongs to.
func (b *Backend) ListCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	lists, err := b.lists.Handle(ctx, queries.ListTaskListsQuery{UserID: b.userID})
	if err != nil {
		return nil, err
	}
	cals := make([]caldav.Calendar, 0, len(lists))
	for _, l := range lists {
		cals = append(cals, newCalendar(l.ID, l.Name, l.Description))
	}
	return cals, nil
}

// GetCalendar returns the calendar of one list.
func (b *Backend) GetCalendar(ctx context.Context, p string) (*caldav.Calendar, error) {
	listID, _, err := parsePath(p)
	if err != nil {
		return nil, err
	}
	feed, err := b.load(ctx, listID)
	if err != nil {
		return nil, err
	}
	cal := newCalendar(feed.List.ID(), feed.List.Name(), feed.List.Description())
	return &cal, nil
}

// GetCalendarObject returns the VTODO of one task.
func (b *Backend) GetCalendarObject(ctx context.Context, p string, req *caldav.CalendarCompRequest) (*caldav.CalendarObject, error) {
	listID, taskID, err := parsePath(p)
	if err != nil {
		return nil, err
	}
	if taskID == uuid.Nil {
		return nil, notFound(p)
	}
	feed, err := b.load(ctx, listID)
	if err != nil {
		return nil, err
	}
	for _, t := range feed.Tasks {
		if t.ID() == taskID {
			obj, err := b.object(feed, t)
			if err != nil {
				return nil, err
			}
			return &obj, nil
		}
	}
	return nil, notFound(p)
}

// ListCalendarObjects returns every task of a list.
func (b *Backend) ListCalendarObjects(ctx context.Context, p string, req *caldav.CalendarCompRequest) ([]caldav.CalendarObject, error) {
	listID, _, err := parsePath(p)
	if err != nil {
		return nil, err
	}
	feed, err := b.load(ctx, listID)
	if err != nil {
		return nil, err
	}
	objects := make([]caldav.CalendarObject, 0, len(feed.Tasks))
	for _, t := range feed.Tasks {
		obj, err := b.object(feed, t)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// QueryCalendarObjects filters the list's objects with the client's query.
func (b *Backend) QueryCalendarObjects(ctx context.Context, p string, query *caldav.CalendarQuery) ([]caldav.CalendarObject, error) {
	objects, err := b.ListCalendarObjects(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	return caldav.Filter(query, objects)
}

// CreateCalendar is refused.
func (b *Backend) CreateCalendar(ctx context.Context, calendar *caldav.Calendar) error {
	return b.readOnly("create calendar", calendar.Path)
}

// DeleteCalendar is refused.
func (b *Backend) DeleteCalendar(ctx context.Context, p string) error {
	return b.readOnly("delete calendar", p)
}

// PutCalendarObject is refused.
func (b *Backend) PutCalendarObject(ctx context.Context, p string, calendar *ical.Calendar, opts *caldav.PutCalendarObjectOptions) (*caldav.CalendarObject, error) {
	return nil, b.readOnly("put object", p)
}

// DeleteCalendarObject is refused.
func (b *Backend) DeleteCalendarObject(ctx context.Context, p string) error {
	return b.readOnly("delete object", p)
}

func (b *Backend) readOnly(op, p string) error {
	b.logger.Info("rejected caldav write", "op", op, "path", p)
	return webdav.NewHTTPError(http.StatusForbidden, errReadOnly)
}

func (b *Backend) load(ctx context.Context, listID uuid.UUID) (*queries.CalendarFeed, error) {
	feed, err := b.feeds.Load(ctx, queries.ExportCalendarQuery{ListID: listID, UserID: b.userID})
	switch {
	case errors.Is(err, tasklist.ErrTaskListNotFound):
		return nil, webdav.NewHTTPError(http.StatusNotFound, err)
	case errors.Is(err, tasklist.ErrNotMember):
		return nil, webdav.NewHTTPError(http.StatusForbidden, err)
	case err != nil:
		return nil, err
	}
	return feed, nil
}

func (b *Backend) object(feed *queries.CalendarFeed, t *task.Task) (caldav.CalendarObject, error) {
	var occurrences []*task.Occurrence
	for _, o := range feed.Occurrences {
		if o.TaskID() == t.ID() {
			occurrences = append(occurrences, o)
		}
	}

	cal, err := b.calendars.Calendar(feed.List.Name(), []*task.Task{t}, occurrences)
	if err != nil {
		return caldav.CalendarObject{}, err
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return caldav.CalendarObject{}, fmt.Errorf("encode task %s: %w", t.ID(), err)
	}

	modTime, etag := version(t, occurrences)
	return caldav.CalendarObject{
		Path:          objectPath(feed.List.ID(), t.ID()),
		ModTime:       modTime,
		ContentLength: int64(buf.Len()),
		ETag:          etag,
		Data:          cal,
	}, nil
}

// version derives the modification time and ETag from the task and its
// occurrences. DTSTAMP changes on every request, so the encoded bytes are not
// hashed.
func version(t *task.Task, occurrences []*task.Occurrence) (time.Time, string) {
	modTime := t.UpdatedAt()
	h := sha256.New()
	id := t.ID()
	h.Write(id[:])
	_ = binary.Write(h, binary.BigEndian, t.UpdatedAt().UnixNano())
	for _, o := range occurrences {
		if o.UpdatedAt().After(modTime) {
			modTime = o.UpdatedAt()
		}
		occurrenceID := o.ID()
		h.Write(occurrenceID[:])
		var completedAt int64
		if at := o.CompletedAt(); at != nil {
			completedAt = at.UnixNano()
		}
		_ = binary.Write(h, binary.BigEndian, completedAt)
	}
	return modTime, hex.EncodeToString(h.Sum(nil)[:16])
}

func newCalendar(listID uuid.UUID, name, description string) caldav.Calendar {
	return caldav.Calendar{
		Path:                  calendarPath(listID),
		Name:                  name,
		Description:           description,
		SupportedComponentSet: []string{ical.CompToDo},
	}
}

func calendarPath(listID uuid.UUID) string {
	return homePath + listID.String() + "/"
}

func objectPath(listID, taskID uuid.UUID) string {
	return calendarPath(listID) + taskID.String() + ".ics"
}

// parsePath splits a calendar or object path. taskID is uuid.Nil for a
// calendar path.
func parsePath(p string) (listID, taskID uuid.UUID, err error) {
	rest, ok := strings.CutPrefix(path.Clean(p)+"/", homePath)
	if !ok || rest == "" {
		return uuid.Nil, uuid.Nil, notFound(p)
	}
	rest = strings.TrimSuffix(rest, "/")
	listPart, objectPart, hasObject := strings.Cut(rest, "/")
	listID, err = uuid.Parse(listPart)
	if err != nil {
		return uuid.Nil, uuid.Nil, notFound(p)
	}
	if !hasObject {
		return listID, uuid.Nil, nil
	}
	name, ok := strings.CutSuffix(objectPart, ".ics")
	if !ok || strings.Contains(name, "/") {
		return uuid.Nil, uuid.Nil, notFound(p)
	}
	taskID, err = uuid.Parse(name)
	if err != nil {
		return uuid.Nil, uuid.Nil, notFound(p)
	}
	return listID, taskID, nil
}

func notFound(p string) error {
	return webdav.NewHTTPError(http.StatusNotFound, fmt.Errorf("no calendar resource at %s", p))
}
