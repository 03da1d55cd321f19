package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dbservice/internal/lookup"
	"dbservice/internal/lookup/mocks"
	"dbservice/internal/upstream"
	"dbservice/pkg/testutil"
)

const sentinelPayload = `{"results_count":1,"results":[{"mobile":"This Number/Cnic Registered After 2022","name":"","cnic":"","address":""}]}`

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	client *mocks.MockRegistryClient
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockRegistryClient(s.ctrl)
	svc, err := lookup.New(s.client)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestLookup() {
	s.Run("short query is rejected before any upstream call", func() {
		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup?query=0300123"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("local number is forwarded verbatim", func() {
		s.client.EXPECT().Fetch(gomock.Any(), lookup.MustQuery("03001234567")).
			DoAndReturn(func(_ context.Context, q lookup.Query) ([]byte, error) {
				s.Equal("03001234567", q.String())
				return []byte(`{"results":[{"mobile":"3001234567","name":"Ali"}]}`), nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup?query=03001234567"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		res := testutil.UnmarshalResponse[lookup.Result](s.T(), rr)
		s.Equal(1, res.ResultsCount)
		s.Equal("03001234567", res.Results[0].Mobile)
		s.Equal(lookup.SourceRegistry, res.Results[0].Source)
	})

	s.Run("sentinel answer is an empty flagged result", func() {
		s.client.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte(sentinelPayload), nil)

		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup?query=923001234567"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		res := testutil.UnmarshalResponse[lookup.Result](s.T(), rr)
		s.True(res.RegisteredAfter2022)
		s.Empty(res.Results)
	})

	s.Run("raw mode returns upstream json verbatim", func() {
		s.client.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte(sentinelPayload), nil)

		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup?query=923001234567&raw=true"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq(sentinelPayload, rr.Body.String())
	})

	s.Run("upstream failure is a 500 with the upstream message", func() {
		s.client.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return(nil, upstream.NewProviderError(upstream.ErrorProviderOutage, lookup.ProviderRegistry, "upstream returned status 502", nil))

		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup?query=3520212345671"))

		s.Equal(http.StatusInternalServerError, rr.Code)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("upstream_error", body["error"])
		s.Equal("upstream returned status 502", body["error_description"])
	})
}

func (s *HandlerSuite) TestExport() {
	at := time.UnixMilli(1700000000000)

	s.Run("csv attachment", func() {
		s.client.EXPECT().Fetch(gomock.Any(), gomock.Any()).
			Return([]byte(`{"results":[{"mobile":"03001234567","name":"Ali","cnic":"3520212345671","address":"Lahore"}]}`), nil)

		req := testutil.WithRequestTime(testutil.NewAPIRequest(s.T(), "/api/lookup/export?query=03001234567"), at)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal("text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		s.Equal(`attachment; filename="db-service-results-1700000000000.csv"`, rr.Header().Get("Content-Disposition"))
		s.Equal("Mobile,Name,CNIC,Address,Source\n03001234567,Ali,3520212345671,Lahore,SIM/CNIC Database\n", rr.Body.String())
	})

	s.Run("text format", func() {
		s.client.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte(`{"results":[{"mobile":"03001234567"}]}`), nil)

		req := testutil.WithRequestTime(testutil.NewAPIRequest(s.T(), "/api/lookup/export?query=03001234567&format=text"), at)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), "Total Records: 1")
		s.Contains(rr.Body.String(), "--- Result 1 ---\nMobile: 03001234567")
	})

	s.Run("unknown format", func() {
		rr := testutil.DoRequest(s.router, testutil.NewAPIRequest(s.T(), "/api/lookup/export?query=03001234567&format=xlsx"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}
