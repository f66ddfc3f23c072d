package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-identity/app/types"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Dial opens a plaintext connection to an AuthService. It is meant for peers
// inside the cluster and for the admin tooling.
func Dial(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, types.AuthServiceClient, error) {
	opts = append([]gogrpc.DialOption{gogrpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := gogrpc.NewClient(target, opts...)
	if err != nil {
		return nil, nil, err
	}
	return conn, types.NewAuthServiceClient(conn), nil
}

// WithBearer attaches an access token to the outgoing metadata of ctx.
func WithBearer(ctx context.Context, accessToken string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+accessToken)
}
