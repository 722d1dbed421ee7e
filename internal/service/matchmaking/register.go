package matchmaking

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/codec"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "matchmaking.MatchService"

// Request and response messages. They travel as JSON (see package codec).
type (
	DiscoverRequest  struct{}
	DiscoverResponse struct {
		Users []PublicUser `json:"users"`
	}

	LikeRequest struct {
		TargetID string `json:"targetId"`
	}
	LikeResponse struct {
		Message string  `json:"message"`
		IsMatch bool    `json:"isMatch"`
		MatchID *string `json:"matchId"`
	}

	ListMatchesRequest  struct{}
	ListMatchesResponse struct {
		Users []PublicUser `json:"users"`
	}

	GetMatchRequest struct {
		MatchID string `json:"matchId"`
	}
	GetMatchResponse struct {
		Match MatchDetail `json:"match"`
	}

	ListLikersRequest struct {
		PaginationToken *string `json:"paginationToken,omitempty"`
		Limit           int     `json:"limit,omitempty"`
	}
	ListLikersResponse struct {
		Likers              []Liker `json:"likers"`
		NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
	}

	CountLikersRequest  struct{}
	CountLikersResponse struct {
		Count int64 `json:"count"`
	}
)

// MatchServiceServer is the server API for the MatchService.
type MatchServiceServer interface {
	Discover(context.Context, *DiscoverRequest) (*DiscoverResponse, error)
	Like(context.Context, *LikeRequest) (*LikeResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	GetMatch(context.Context, *GetMatchRequest) (*GetMatchResponse, error)
	ListLikers(context.Context, *ListLikersRequest) (*ListLikersResponse, error)
	CountLikers(context.Context, *CountLikersRequest) (*CountLikersResponse, error)
}

// ServiceDesc describes MatchService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Discover", MatchServiceServer.Discover),
		unary("Like", MatchServiceServer.Like),
		unary("ListMatches", MatchServiceServer.ListMatches),
		unary("GetMatch", MatchServiceServer.GetMatch),
		unary("ListLikers", MatchServiceServer.ListLikers),
		unary("CountLikers", MatchServiceServer.CountLikers),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matchmaking",
}

func unary[Req, Resp any](
	method string,
	call func(MatchServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GRPCServer adapts Service to MatchServiceServer. The requester id is read
// from the context populated by the auth interceptor.
type GRPCServer struct {
	svc *Service
}

func NewGRPCServer(svc *Service) *GRPCServer {
	return &GRPCServer{svc: svc}
}

func requester(ctx context.Context) (string, error) {
	uid, ok := auth.UserIDFrom(ctx)
	if !ok {
		return "", svcErr.Map(svcErr.Unauthenticated("missing credentials"))
	}
	return uid, nil
}

func (g *GRPCServer) Discover(ctx context.Context, _ *DiscoverRequest) (*DiscoverResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	users, err := g.svc.Discover(ctx, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &DiscoverResponse{Users: users}, nil
}

func (g *GRPCServer) Like(ctx context.Context, req *LikeRequest) (*LikeResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	res, err := g.svc.Like(ctx, uid, req.TargetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &LikeResponse{Message: LikeMessage(res), IsMatch: res.IsMatch, MatchID: res.MatchID}, nil
}

func (g *GRPCServer) ListMatches(ctx context.Context, _ *ListMatchesRequest) (*ListMatchesResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	users, err := g.svc.ListMatches(ctx, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMatchesResponse{Users: users}, nil
}

func (g *GRPCServer) GetMatch(ctx context.Context, req *GetMatchRequest) (*GetMatchResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	m, err := g.svc.GetMatch(ctx, req.MatchID, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetMatchResponse{Match: m}, nil
}

func (g *GRPCServer) ListLikers(ctx context.Context, req *ListLikersRequest) (*ListLikersResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	likers, next, err := g.svc.ListLikers(ctx, uid, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListLikersResponse{Likers: likers, NextPaginationToken: next}, nil
}

func (g *GRPCServer) CountLikers(ctx context.Context, _ *CountLikersRequest) (*CountLikersResponse, error) {
	uid, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	n, err := g.svc.CountLikers(ctx, uid)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountLikersResponse{Count: n}, nil
}

// LikeMessage is the human-readable summary returned with a like.
func LikeMessage(res LikeResult) string {
	if res.IsMatch {
		return "It's a match!"
	}
	return "User liked successfully"
}

// Registrar ties the MatchService into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the MatchService
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the MatchService implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewGRPCServer(NewService(r.appCtx)))
}

// Client is a thin MatchService client speaking the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Discover(ctx context.Context, in *DiscoverRequest, opts ...grpc.CallOption) (*DiscoverResponse, error) {
	return invoke[DiscoverResponse](ctx, c.cc, "Discover", in, opts)
}

func (c *Client) Like(ctx context.Context, in *LikeRequest, opts ...grpc.CallOption) (*LikeResponse, error) {
	return invoke[LikeResponse](ctx, c.cc, "Like", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", in, opts)
}

func (c *Client) GetMatch(ctx context.Context, in *GetMatchRequest, opts ...grpc.CallOption) (*GetMatchResponse, error) {
	return invoke[GetMatchResponse](ctx, c.cc, "GetMatch", in, opts)
}

func (c *Client) ListLikers(ctx context.Context, in *ListLikersRequest, opts ...grpc.CallOption) (*ListLikersResponse, error) {
	return invoke[ListLikersResponse](ctx, c.cc, "ListLikers", in, opts)
}

func (c *Client) CountLikers(ctx context.Context, in *CountLikersRequest, opts ...grpc.CallOption) (*CountLikersResponse, error) {
	return invoke[CountLikersResponse](ctx, c.cc, "CountLikers", in, opts)
}
