package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"product-listing-service/internal/listing"
	"product-listing-service/internal/logger"
	"product-listing-service/internal/store"
)

const listProductsMethod = "/listing.v1.ProductListingService/ListProducts"

// ListingServiceServer is the gRPC listing surface. Requests and responses are
// google.protobuf.Struct values with the same field names as the HTTP API.
type ListingServiceServer interface {
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ListingServiceDesc describes listing.v1.ProductListingService.
var ListingServiceDesc = grpc.ServiceDesc{
	ServiceName: "listing.v1.ProductListingService",
	HandlerType: (*ListingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProducts", Handler: listProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "listing/v1/listing.proto",
}

// RegisterListingServiceServer registers srv on s.
func RegisterListingServiceServer(s grpc.ServiceRegistrar, srv ListingServiceServer) {
	s.RegisterService(&ListingServiceDesc, srv)
}

func listProductsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListingServiceServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listProductsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ListingServiceServer).ListProducts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCHandler implements ListingServiceServer.
type GRPCHandler struct {
	lister ProductLister
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(lister ProductLister) *GRPCHandler {
	return &GRPCHandler{lister: lister}
}

// --- Helper: Error Mapping ---
func mapErrorToGrpcStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, listing.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrCategoryNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		logger.FromContext(ctx).Error("gRPC listing request failed", "error", err)
		return status.Errorf(codes.Internal, "Failed to retrieve products: %v", err)
	}
}

func (s *GRPCHandler) ListProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := ParseListingRequest(structToValues(in))
	if err != nil {
		return nil, mapErrorToGrpcStatus(ctx, err)
	}

	res, err := s.lister.List(ctx, req)
	if err != nil {
		return nil, mapErrorToGrpcStatus(ctx, err)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return nil, mapErrorToGrpcStatus(ctx, err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, mapErrorToGrpcStatus(ctx, err)
	}
	return out, nil
}

// structToValues flattens a request struct into query-string form so gRPC and
// HTTP share one parser. Lists become repeated values; nested structs are ignored.
func structToValues(in *structpb.Struct) url.Values {
	values := url.Values{}
	for name, v := range in.GetFields() {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_ListValue:
			for _, item := range kind.ListValue.GetValues() {
				if s, ok := scalarString(item); ok {
					values.Add(name, s)
				}
			}
		default:
			if s, ok := scalarString(v); ok {
				values.Set(name, s)
			}
		}
	}
	return values
}

func scalarString(v *structpb.Value) (string, bool) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, true
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), true
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), true
	default:
		return "", false
	}
}

// LoggingUnaryInterceptor gives every RPC a trace-scoped logger, taking the
// trace id from x-trace-id metadata when it is a valid uuid.
func LoggingUnaryInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		traceID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vs := md.Get(strings.ToLower(TraceIDHeader)); len(vs) > 0 {
				traceID = vs[0]
			}
		}
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}

		l := base.With(slog.String("trace_id", traceID))
		start := time.Now()
		resp, err := handler(logger.WithContext(ctx, l), req)
		l.Info("RPC finished",
			slog.String("grpc_method", info.FullMethod),
			slog.String("grpc_code", status.Code(err).String()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return resp, err
	}
}
