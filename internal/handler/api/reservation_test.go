//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"stayfinder/internal/domain/principal"
	"stayfinder/internal/domain/reservation"
	"stayfinder/internal/handler/api"
	resdto "stayfinder/internal/handler/dto/response"
	"stayfinder/internal/handler/middleware"
	"stayfinder/internal/pkg/errs"
	"stayfinder/internal/usecase/commands"
	"stayfinder/internal/usecase/queries"
	"stayfinder/tests/common/builder"
	"stayfinder/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// Hand-rolled stubs; handlers only need call-by-call behavior.

type stubCommands struct {
	createFn  func(ctx context.Context, guestID uuid.UUID, p commands.CreateReservationParams, key *uuid.UUID) (*queries.ReservationView, error)
	cancelFn  func(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error)
	confirmFn func(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error)
}

func (s *stubCommands) Create(ctx context.Context, guestID uuid.UUID, p commands.CreateReservationParams, key *uuid.UUID) (*queries.ReservationView, error) {
	return s.createFn(ctx, guestID, p, key)
}

func (s *stubCommands) Cancel(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error) {
	return s.cancelFn(ctx, actor, id)
}

func (s *stubCommands) Confirm(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	return s.confirmFn(ctx, id)
}

func (s *stubCommands) ExpireStaleHolds(_ context.Context) (int64, error) {
	return 0, nil
}

type stubQueries struct {
	getByIDFn func(ctx context.Context, actor principal.Principal, id uuid.UUID) (*queries.ReservationView, error)
	listForFn func(ctx context.Context, actor principal.Principal, role principal.Role, after *queries.Cursor, limit int) ([]*queries.ReservationListItem, *queries.Cursor, error)
}

func (s *stubQueries) GetByID(ctx context.Context, actor principal.Principal, id uuid.UUID) (*queries.ReservationView, error) {
	return s.getByIDFn(ctx, actor, id)
}

func (s *stubQueries) ListFor(ctx context.Context, actor principal.Principal, role principal.Role, after *queries.Cursor, limit int) ([]*queries.ReservationListItem, *queries.Cursor, error) {
	return s.listForFn(ctx, actor, role, after, limit)
}

type stubValidator struct {
	principals map[string]principal.Principal
}

func (v *stubValidator) Validate(token string) (principal.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return principal.Principal{}, errors.New("invalid token")
	}
	return p, nil
}

type ReservationHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *stubCommands
	queries  *stubQueries

	guest  principal.Principal
	system principal.Principal
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.guest = principal.Principal{ID: uuid.New(), Role: principal.RoleGuest}
	s.system = principal.Principal{ID: uuid.New(), Role: principal.RoleSystem}

	s.commands = &stubCommands{}
	s.queries = &stubQueries{}
	handler := api.NewReservationHandler(s.commands, s.queries)

	auth := middleware.NewAuthMiddleware(&stubValidator{principals: map[string]principal.Principal{
		"guest-token":  s.guest,
		"system-token": s.system,
	}})

	group := s.router.Group("/api/reservations")
	group.Use(auth.RequireAuth())
	group.POST("", handler.CreateReservation)
	group.GET("", handler.ListReservations)
	group.GET("/:id", handler.GetReservation)
	group.PATCH("/:id/cancel", handler.CancelReservation)
	group.POST("/:id/confirm", auth.RequireRole(principal.RoleSystem), handler.ConfirmReservation)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	url := "/api/reservations"
	reqBody := builder.NewReservationBuilder().BuildCreateRequestDTO()
	view := builder.NewReservationBuilder().BuildView(reservation.StatusPending)

	s.Run("returns 201 for a valid request", func() {
		s.commands.createFn = func(_ context.Context, guestID uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			s.Equal(s.guest.ID, guestID)
			return view, nil
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")

		var resp resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &resp)
		s.Equal(view.ID, resp.ID)
		s.Equal("pending", resp.Status)
	})

	s.Run("passes the idempotency key through", func() {
		key := uuid.New()
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, got *uuid.UUID) (*queries.ReservationView, error) {
			s.Require().NotNil(got)
			s.Equal(key, *got)
			return view, nil
		}

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token",
			map[string]string{"Idempotency-Key": key.String()})
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("returns 401 without a token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("returns 400 for malformed dates", func() {
		bad := reqBody
		bad.CheckIn = "June 1st"

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, bad, "guest-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "YYYY-MM-DD")
	})

	s.Run("returns 400 for a malformed idempotency key", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token",
			map[string]string{"Idempotency-Key": "not-a-uuid"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps dates unavailable to 409", func() {
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrDatesUnavailable
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "not available")
	})

	s.Run("maps a marked conflict to 409", func() {
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			// Command errors arrive as marked storage causes, not bare
			// sentinels; the mapping must still resolve them.
			return nil, errs.Mark(errs.New("insert lost dates race"), commands.ErrDatesUnavailable)
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "not available")
	})

	s.Run("maps a marked validation failure to 400", func() {
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			return nil, errs.Mark(reservation.ErrTooManyGuests, commands.ErrInvalidRequest)
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps unknown listing to 404", func() {
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrListingNotFound
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("maps storage failure to 500", func() {
		s.commands.createFn = func(_ context.Context, _ uuid.UUID, _ commands.CreateReservationParams, _ *uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrStorageFailure
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "guest-token")
		s.Equal(http.StatusInternalServerError, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	view := builder.NewReservationBuilder().BuildView(reservation.StatusConfirmed)

	s.Run("returns the reservation", func() {
		s.queries.getByIDFn = func(_ context.Context, actor principal.Principal, id uuid.UUID) (*queries.ReservationView, error) {
			s.Equal(s.guest.ID, actor.ID)
			s.Equal(view.ID, id)
			return view, nil
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations/"+view.ID.String(), nil, "guest-token")

		var resp resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("confirmed", resp.Status)
	})

	s.Run("returns 400 for a malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations/abc", nil, "guest-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps forbidden to 403", func() {
		s.queries.getByIDFn = func(_ context.Context, _ principal.Principal, _ uuid.UUID) (*queries.ReservationView, error) {
			return nil, queries.ErrForbidden
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations/"+uuid.NewString(), nil, "guest-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("maps not found to 404", func() {
		s.queries.getByIDFn = func(_ context.Context, _ principal.Principal, _ uuid.UUID) (*queries.ReservationView, error) {
			return nil, queries.ErrReservationNotFound
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations/"+uuid.NewString(), nil, "guest-token")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestListReservations() {
	s.Run("returns a page with cursor", func() {
		next := &queries.Cursor{After: "opaque"}
		s.queries.listForFn = func(_ context.Context, actor principal.Principal, role principal.Role, after *queries.Cursor, limit int) ([]*queries.ReservationListItem, *queries.Cursor, error) {
			s.Equal(principal.RoleGuest, role)
			s.Nil(after)
			s.Equal(2, limit)
			return []*queries.ReservationListItem{
				{ID: uuid.New(), Status: "pending"},
				{ID: uuid.New(), Status: "confirmed"},
			}, next, nil
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations?limit=2", nil, "guest-token")

		var resp resdto.ReservationPageResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Len(resp.Items, 2)
		s.Require().NotNil(resp.NextCursor)
		s.Equal("opaque", *resp.NextCursor)
	})

	s.Run("returns 400 for a bad limit", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/reservations?limit=abc", nil, "guest-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestCancelReservation() {
	view := builder.NewReservationBuilder().BuildView(reservation.StatusCancelled)

	s.Run("cancels and returns the reservation", func() {
		s.commands.cancelFn = func(_ context.Context, actor uuid.UUID, id uuid.UUID) (*queries.ReservationView, error) {
			s.Equal(s.guest.ID, actor)
			return view, nil
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/api/reservations/"+view.ID.String()+"/cancel", nil, "guest-token")

		var resp resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("cancelled", resp.Status)
	})

	s.Run("maps forbidden to 403", func() {
		s.commands.cancelFn = func(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrForbidden
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/api/reservations/"+uuid.NewString()+"/cancel", nil, "guest-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("maps already cancelled to 409", func() {
		s.commands.cancelFn = func(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrAlreadyCancelled
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, "/api/reservations/"+uuid.NewString()+"/cancel", nil, "guest-token")
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestConfirmReservation() {
	view := builder.NewReservationBuilder().BuildView(reservation.StatusConfirmed)

	s.Run("system principal confirms", func() {
		s.commands.confirmFn = func(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
			return view, nil
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/reservations/"+view.ID.String()+"/confirm", nil, "system-token")

		var resp resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &resp)
		s.Equal("confirmed", resp.Status)
	})

	s.Run("guests cannot confirm", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/reservations/"+uuid.NewString()+"/confirm", nil, "guest-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("maps not pending to 409", func() {
		s.commands.confirmFn = func(_ context.Context, _ uuid.UUID) (*queries.ReservationView, error) {
			return nil, commands.ErrNotPending
		}

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/reservations/"+uuid.NewString()+"/confirm", nil, "system-token")
		s.Equal(http.StatusConflict, rec.Code)
	})
}
