package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dbservice/internal/lookup"
	"dbservice/internal/lookup/mocks"
	"dbservice/internal/lookup/store"
	"dbservice/internal/platform/metrics"
	"dbservice/internal/upstream"
	dErrors "dbservice/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	client  *mocks.MockRegistryClient
	cache   *store.InMemoryCache
	metrics *metrics.Metrics
	service *lookup.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockRegistryClient(s.ctrl)
	s.cache = store.NewInMemoryCache(time.Minute)
	s.metrics = metrics.New(prometheus.NewRegistry())

	svc, err := lookup.New(s.client, lookup.WithCache(s.cache), lookup.WithMetrics(s.metrics))
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil client returns error", func() {
		_, err := lookup.New(nil)
		s.ErrorContains(err, "registry client is required")
	})
}

func (s *ServiceSuite) TestLookup() {
	ctx := context.Background()

	s.Run("sentinel-only payload returns empty flagged result", func() {
		q := lookup.MustQuery("03001234567")
		s.client.EXPECT().Fetch(gomock.Any(), q).
			Return([]byte(`{"results_count":1,"results":[{"mobile":"This Number/Cnic Registered After 2022"}]}`), nil)

		res, err := s.service.Lookup(ctx, q)

		s.Require().NoError(err)
		s.True(res.RegisteredAfter2022)
		s.Empty(res.Results)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.SentinelResults))
	})

	s.Run("second identical lookup is served from cache", func() {
		q := lookup.MustQuery("923001234567")
		s.client.EXPECT().Fetch(gomock.Any(), q).
			Return([]byte(`{"results":[{"mobile":"3001234567","name":"Ali"}]}`), nil).
			Times(1)

		first, err := s.service.Lookup(ctx, q)
		s.Require().NoError(err)
		second, err := s.service.Lookup(ctx, q)
		s.Require().NoError(err)

		s.Equal(first, second)
		s.Equal("03001234567", second.Results[0].Mobile)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheLookups.WithLabelValues("hit")))
	})

	s.Run("upstream failure carries the upstream message", func() {
		q := lookup.MustQuery("3520212345671")
		s.client.EXPECT().Fetch(gomock.Any(), q).
			Return(nil, upstream.NewProviderError(upstream.ErrorProviderOutage, lookup.ProviderRegistry, "upstream returned status 503", nil))

		_, err := s.service.Lookup(ctx, q)

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
		var de *dErrors.Error
		s.Require().True(errors.As(err, &de))
		s.Equal("upstream returned status 503", de.Message)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.UpstreamCalls.WithLabelValues(lookup.ProviderRegistry, metrics.OutcomeFailure)))
	})

	s.Run("upstream timeout keeps the timeout code", func() {
		q := lookup.MustQuery("03111234567")
		s.client.EXPECT().Fetch(gomock.Any(), q).
			Return(nil, upstream.NewProviderError(upstream.ErrorTimeout, lookup.ProviderRegistry, "request timed out", context.DeadlineExceeded))

		_, err := s.service.Lookup(ctx, q)

		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
		s.ErrorIs(err, context.DeadlineExceeded)
	})
}

func (s *ServiceSuite) TestZeroQueryNeverReachesUpstream() {
	_, err := s.service.Lookup(context.Background(), lookup.Query{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.Raw(context.Background(), lookup.Query{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestRaw() {
	q := lookup.MustQuery("03001234567")
	payload := []byte(`{"results_count":1,"results":[{"mobile":"This Number/Cnic Registered After 2022"}]}`)
	s.client.EXPECT().Fetch(gomock.Any(), q).Return(payload, nil).Times(2)

	for range 2 {
		raw, err := s.service.Raw(context.Background(), q)
		s.Require().NoError(err)
		s.JSONEq(string(payload), string(raw))
	}
	s.Equal(0, s.cache.Len())
}
