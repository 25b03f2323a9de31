package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	AnalyticsServicePath    = "/analytics.v1.AnalyticsService/"
	CreateQueryProcedure    = AnalyticsServicePath + "CreateQuery"
	GetQueryProcedure       = AnalyticsServicePath + "GetQuery"
	SubscribeQueryProcedure = AnalyticsServicePath + "SubscribeQuery"
)

type CreateQueryRequest struct {
	SearchTerm string `json:"searchTerm"`
	Type       string `json:"type"`
	Region     string `json:"region"`
	Depth      int    `json:"depth"`
}

type CreateQueryResponse struct {
	ID string `json:"id"`
}

type QueryRequest struct {
	ID string `json:"id"`
}

type AnalyticsServer struct {
	queries   *service.QueryService
	snapshots *service.SnapshotService
	stream    *service.StreamService
	logger    zerolog.Logger
}

func NewAnalyticsServer(queries *service.QueryService, snapshots *service.SnapshotService, stream *service.StreamService, logger zerolog.Logger) *AnalyticsServer {
	return &AnalyticsServer{queries: queries, snapshots: snapshots, stream: stream, logger: logger}
}

// Handler mounts the three procedures under AnalyticsServicePath.
func (s *AnalyticsServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON(), connect.WithInterceptors(logRequests(s.logger))}, opts...)

	create := connect.NewUnaryHandler(CreateQueryProcedure, s.CreateQuery, opts...)
	get := connect.NewUnaryHandler(GetQueryProcedure, s.GetQuery, append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...)
	subscribe := connect.NewServerStreamHandler(SubscribeQueryProcedure, s.SubscribeQuery, opts...)

	return AnalyticsServicePath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CreateQueryProcedure:
			create.ServeHTTP(w, r)
		case GetQueryProcedure:
			get.ServeHTTP(w, r)
		case SubscribeQueryProcedure:
			subscribe.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *AnalyticsServer) CreateQuery(ctx context.Context, req *connect.Request[CreateQueryRequest]) (*connect.Response[CreateQueryResponse], error) {
	id, err := s.queries.Submit(ctx, service.CreateQueryInput{
		SearchTerm: req.Msg.SearchTerm,
		Type:       domain.QueryType(strings.ToUpper(strings.TrimSpace(req.Msg.Type))),
		Region:     req.Msg.Region,
		Depth:      req.Msg.Depth,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateQueryResponse{ID: id}), nil
}

func (s *AnalyticsServer) GetQuery(ctx context.Context, req *connect.Request[QueryRequest]) (*connect.Response[analytics.AnalyzedQuery], error) {
	state, err := s.snapshots.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(state), nil
}

func (s *AnalyticsServer) SubscribeQuery(ctx context.Context, req *connect.Request[QueryRequest], stream *connect.ServerStream[analytics.AnalyzedQuery]) error {
	err := s.stream.Stream(ctx, req.Msg.ID, func(state *analytics.AnalyzedQuery) error {
		return stream.Send(state)
	})
	if err != nil {
		return toConnectError(err)
	}
	return nil
}

func toConnectError(err error) error {
	var failed *service.QueryFailedError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrInvalidQuery):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &failed):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// logRequests logs every unary call through the request-scoped logger set
// by middleware.RequestID.
func logRequests(fallback zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			log := zerolog.Ctx(ctx)
			if log.GetLevel() == zerolog.Disabled {
				log = &fallback
			}
			res, err := next(ctx, req)
			event := log.Debug()
			if err != nil {
				event = log.Warn().Err(err).Str("code", connect.CodeOf(err).String())
			}
			event.Str("procedure", req.Spec().Procedure).Msg("rpc handled")
			return res, err
		}
	}
}
