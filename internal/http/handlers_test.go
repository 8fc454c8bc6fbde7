package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/example/clubhouse/internal/http"
	"github.com/example/clubhouse/internal/permission"
	"github.com/example/clubhouse/internal/persistence"
	"github.com/example/clubhouse/internal/testfixtures"
)

const testIssuer = "https://idp.example.test"

var testSecret = []byte("test-signing-secret")

type api struct {
	handler  http.Handler
	club     persistence.Club
	other    persistence.Club
	super    persistence.User
	admin    persistence.User
	regular  persistence.User
	limited  persistence.User
	outsider persistence.User
}

func newAPI(t *testing.T) *api {
	t.Helper()

	storage := testfixtures.NewSQLiteStorage(t)
	svc := testfixtures.NewServiceFactory().Build(storage)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := &api{
		club:     testfixtures.NewClub(""),
		other:    testfixtures.NewClub(""),
		super:    testfixtures.NewUser(testfixtures.WithLevel(permission.SuperAdmin)),
		admin:    testfixtures.NewUser(testfixtures.WithLevel(permission.Admin)),
		regular:  testfixtures.NewUser(),
		limited:  testfixtures.NewUser(testfixtures.WithLevel(permission.Limited)),
		outsider: testfixtures.NewUser(),
	}
	require.NoError(t, storage.CreateUser(context.Background(), a.super))
	for _, user := range []persistence.User{a.admin, a.regular, a.limited} {
		testfixtures.SeedMember(t, storage, a.club, user)
	}
	testfixtures.SeedMember(t, storage, a.other, a.outsider)

	a.handler = apphttp.NewRouter(apphttp.RouterConfig{
		Users:        apphttp.NewUserHandler(svc.Users, logger),
		Clubs:        apphttp.NewClubHandler(svc.Clubs, logger),
		Appointments: apphttp.NewAppointmentHandler(svc.Appointments, logger),
		Addresses:    apphttp.NewAddressHandler(svc.Addresses, logger),
		Consists:     apphttp.NewConsistHandler(svc.Consists, logger),
		Issues:       apphttp.NewIssueHandler(svc.Issues, logger),
		Notices:      apphttp.NewNoticeHandler(svc.Notices, logger),
		Identity: apphttp.RequireIdentity(svc.Users, apphttp.IdentityConfig{
			Secret: testSecret,
			Issuer: testIssuer,
		}, logger),
		Metrics:    apphttp.NewMetrics(nil),
		Health:     storage.Ping,
		Middleware: []func(http.Handler) http.Handler{apphttp.RequestLogger(logger)},
	})
	return a
}

func signToken(t *testing.T, subject string, secret []byte, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

// do sends a request as user; a zero user sends no token.
func (a *api) do(t *testing.T, user persistence.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if user.Subject != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, user.Subject, testSecret, time.Hour))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors"`
}

func TestRouter_PublicEndpoints(t *testing.T) {
	a := newAPI(t)
	anonymous := persistence.User{}

	t.Run("Should serve opening hours without a token", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodGet, "/hours?date=2026-10-24", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[struct {
			Date    string   `json:"date"`
			DayName string   `json:"day_name"`
			Open    bool     `json:"open"`
			Hours   string   `json:"hours"`
			Slots   []string `json:"slots"`
		}](t, rec)
		assert.Equal(t, "Saturday", body.DayName)
		assert.True(t, body.Open)
		assert.Equal(t, "9:00 AM - 5:00 PM", body.Hours)
		assert.Equal(t, "9:00 AM", body.Slots[0])
		assert.Equal(t, "5:00 PM", body.Slots[len(body.Slots)-1])
	})

	t.Run("Should report closed days with an empty slot list", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodGet, "/hours?date=2026-10-18", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"slots":[]`)
		assert.Contains(t, rec.Body.String(), `"hours":"Closed"`)
	})

	t.Run("Should reject malformed dates", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodGet, "/hours?date=2026-13-40", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "date")
	})

	t.Run("Should list the bookable durations", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodGet, "/durations", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Durations []int `json:"durations"`
		}](t, rec)
		require.Len(t, body.Durations, 16)
		assert.Equal(t, 30, body.Durations[0])
		assert.Equal(t, 480, body.Durations[15])
	})

	t.Run("Should report health and expose metrics", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do(t, anonymous, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `clubhouse_http_requests_total{method="GET",pattern="GET /hours",status="200"}`)
	})

	t.Run("Should reject unsupported methods", func(t *testing.T) {
		rec := a.do(t, anonymous, http.MethodPost, "/hours", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_Identity(t *testing.T) {
	a := newAPI(t)

	send := func(t *testing.T, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing token", header: ""},
		{name: "wrong scheme", header: "Basic " + signToken(t, a.regular.Subject, testSecret, time.Hour)},
		{name: "foreign signature", header: "Bearer " + signToken(t, a.regular.Subject, []byte("other-secret"), time.Hour), code: "AUTH_INVALID"},
		{name: "expired token", header: "Bearer " + signToken(t, a.regular.Subject, testSecret, -time.Hour), code: "AUTH_INVALID"},
		{name: "unregistered subject", header: "Bearer " + signToken(t, "idp|nobody", testSecret, time.Hour), code: "AUTH_REQUIRED"},
	}
	for _, tc := range tests {
		t.Run("Should refuse "+tc.name, func(t *testing.T) {
			rec := send(t, tc.header)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.code, decodeBody[errorBody](t, rec).ErrorCode)
		})
	}

	t.Run("Should describe the caller", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodGet, "/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			User struct {
				ID         string `json:"id"`
				Level      int    `json:"level"`
				LevelLabel string `json:"level_label"`
			} `json:"user"`
			ClubIDs []string `json:"club_ids"`
		}](t, rec)
		assert.Equal(t, a.regular.ID, body.User.ID)
		assert.Equal(t, int(permission.Regular), body.User.Level)
		assert.Equal(t, "Regular", body.User.LevelLabel)
		assert.Equal(t, []string{a.club.ID}, body.ClubIDs)
	})
}

func TestUserHandlers(t *testing.T) {
	a := newAPI(t)

	t.Run("Should restrict the directory to admins", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodGet, "/users", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "AUTH_FORBIDDEN", decodeBody[errorBody](t, rec).ErrorCode)

		rec = a.do(t, a.admin, http.MethodGet, "/users", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should register members", func(t *testing.T) {
		rec := a.do(t, a.admin, http.MethodPost, "/users", map[string]any{
			"subject":      "idp|new-member",
			"display_name": "New Member",
			"level":        int(permission.Regular),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = a.do(t, a.admin, http.MethodPost, "/users", map[string]any{
			"subject":      "idp|new-member",
			"display_name": "Again",
			"level":        int(permission.Regular),
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Should validate payloads before the service", func(t *testing.T) {
		rec := a.do(t, a.admin, http.MethodPost, "/users", map[string]any{
			"subject":      "idp|bad-level",
			"display_name": "Bad Level",
			"level":        7,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "level")

		rec = a.do(t, a.admin, http.MethodPost, "/users", `{"subject":"x","unknown":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reserve super admin grants to super admins", func(t *testing.T) {
		path := "/users/" + a.regular.ID + "/permission"
		rec := a.do(t, a.admin, http.MethodPut, path, map[string]any{"level": int(permission.SuperAdmin)})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.super, http.MethodPut, path, map[string]any{"level": int(permission.Admin)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"level_label":"Admin"`)
	})
}

func TestClubHandlers(t *testing.T) {
	a := newAPI(t)

	t.Run("Should let super admins create clubs", func(t *testing.T) {
		rec := a.do(t, a.admin, http.MethodPost, "/clubs", map[string]any{"name": "Harbor Line"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.super, http.MethodPost, "/clubs", map[string]any{"name": "Harbor Line"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("Should hide foreign clubs", func(t *testing.T) {
		rec := a.do(t, a.outsider, http.MethodGet, "/clubs/"+a.club.ID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.regular, http.MethodGet, "/clubs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Clubs []struct {
				ID string `json:"id"`
			} `json:"clubs"`
		}](t, rec)
		require.Len(t, body.Clubs, 1)
		assert.Equal(t, a.club.ID, body.Clubs[0].ID)
	})

	t.Run("Should manage membership", func(t *testing.T) {
		path := "/clubs/" + a.club.ID + "/members"
		rec := a.do(t, a.admin, http.MethodPost, path, map[string]any{"user_id": a.outsider.ID})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = a.do(t, a.regular, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), a.outsider.ID)

		rec = a.do(t, a.admin, http.MethodDelete, path+"/"+a.outsider.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAppointmentHandlers(t *testing.T) {
	a := newAPI(t)

	booking := func(date, clock string) map[string]any {
		return map[string]any{"club_id": a.club.ID, "date": date, "time": clock, "duration": 60}
	}

	type appointmentBody struct {
		Appointment struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			Date   string `json:"date"`
			Time   string `json:"time"`
			Start  string `json:"start"`
			End    string `json:"end"`
		} `json:"appointment"`
	}
	var created appointmentBody

	t.Run("Should book a slot for the caller", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodPost, "/appointments", booking("2026-10-19", "7:30 PM"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created = decodeBody[appointmentBody](t, rec)
		assert.Equal(t, a.regular.ID, created.Appointment.UserID)
		assert.Equal(t, "2026-10-19", created.Appointment.Date)
		assert.Equal(t, "7:30 PM", created.Appointment.Time)
		assert.Equal(t, "2026-10-19T19:30:00Z", created.Appointment.Start)
		assert.Equal(t, "2026-10-19T20:30:00Z", created.Appointment.End)
	})

	t.Run("Should reject bookings outside opening hours", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodPost, "/appointments", booking("2026-10-18", "10:00 AM"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "date")

		rec = a.do(t, a.regular, http.MethodPost, "/appointments", booking("2026-10-24", "5:30 PM"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "time")
	})

	t.Run("Should keep other members out of the booking", func(t *testing.T) {
		path := "/appointments/" + created.Appointment.ID
		rec := a.do(t, a.outsider, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.limited, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.limited, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should list by date range", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodGet, "/appointments?from=2026-10-19&to=2026-10-19", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), created.Appointment.ID)

		rec = a.do(t, a.regular, http.MethodGet, "/appointments?from=2026-10-20", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"appointments":[]`)

		rec = a.do(t, a.regular, http.MethodGet, "/appointments?from=yesterday", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "from")
	})

	t.Run("Should let the owner reschedule and cancel", func(t *testing.T) {
		path := "/appointments/" + created.Appointment.ID
		rec := a.do(t, a.regular, http.MethodPut, path, booking("2026-10-24", "4:30 PM"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"time":"4:30 PM"`)

		rec = a.do(t, a.regular, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = a.do(t, a.regular, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestNumberedHandlers(t *testing.T) {
	a := newAPI(t)

	t.Run("Should refuse a second in-use address", func(t *testing.T) {
		body := map[string]any{"club_id": a.club.ID, "number": 3, "description": "Switcher", "in_use": true}
		rec := a.do(t, a.regular, http.MethodPost, "/addresses", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"owner_id":"`+a.regular.ID+`"`)

		rec = a.do(t, a.limited, http.MethodPost, "/addresses", body)
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "address 3 is already in use", decodeBody[errorBody](t, rec).Message)
	})

	t.Run("Should filter addresses by use", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodPost, "/addresses", map[string]any{"club_id": a.club.ID, "number": 44})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = a.do(t, a.regular, http.MethodGet, "/addresses?in_use=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Addresses []struct {
				Number int `json:"number"`
			} `json:"addresses"`
		}](t, rec)
		require.Len(t, body.Addresses, 1)
		assert.Equal(t, 3, body.Addresses[0].Number)

		rec = a.do(t, a.regular, http.MethodGet, "/addresses?in_use=maybe", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Should cap consist numbers", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodPost, "/consists", map[string]any{"club_id": a.club.ID, "number": 128})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "number")

		rec = a.do(t, a.regular, http.MethodPost, "/consists", map[string]any{"club_id": a.club.ID, "number": 127})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"consist":`)
	})

	t.Run("Should reserve unassigned records to admins", func(t *testing.T) {
		body := map[string]any{"club_id": a.club.ID, "number": 900, "owner_id": ""}
		rec := a.do(t, a.regular, http.MethodPost, "/addresses", body)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.admin, http.MethodPost, "/addresses", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), `"owner_id"`)
	})
}

func TestIssueHandlers(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, a.regular, http.MethodPost, "/issues", map[string]any{"club_id": a.club.ID, "title": "Turnout 4 sticks", "status": "closed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issue := decodeBody[struct {
		Issue struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"issue"`
	}](t, rec).Issue

	t.Run("Should open new issues", func(t *testing.T) {
		assert.Equal(t, "open", issue.Status)
	})

	t.Run("Should let the reporter close an issue", func(t *testing.T) {
		rec := a.do(t, a.limited, http.MethodPut, "/issues/"+issue.ID, map[string]any{"title": "Turnout 4 sticks", "status": "closed"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.regular, http.MethodPut, "/issues/"+issue.ID, map[string]any{"title": "Turnout 4 sticks", "status": "closed"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"status":"closed"`)
	})

	t.Run("Should filter by status", func(t *testing.T) {
		rec := a.do(t, a.admin, http.MethodGet, "/issues?status=open", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"issues":[]`)

		rec = a.do(t, a.admin, http.MethodGet, "/issues?status=pending", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "status")
	})
}

func TestNoticeHandlers(t *testing.T) {
	a := newAPI(t)
	notice := map[string]any{"club_id": a.club.ID, "title": "Operating session", "body": "Friday at 7 PM."}

	t.Run("Should limit posting to admins", func(t *testing.T) {
		rec := a.do(t, a.regular, http.MethodPost, "/notices", notice)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, a.admin, http.MethodPost, "/notices", notice)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"author_id":"`+a.admin.ID+`"`)
	})

	t.Run("Should show notices to members only", func(t *testing.T) {
		rec := a.do(t, a.limited, http.MethodGet, "/notices", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Operating session")

		rec = a.do(t, a.outsider, http.MethodGet, "/notices?club_id="+a.club.ID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Should require a body", func(t *testing.T) {
		rec := a.do(t, a.admin, http.MethodPost, "/notices", map[string]any{"club_id": a.club.ID, "title": "Empty"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Errors, "body")
	})
}
