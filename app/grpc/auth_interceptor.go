package grpc

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type principalKey struct{}

// Principal is the verified caller of a protected RPC.
type Principal struct {
	ID    uint64
	Name  string
	Email string
	Role  string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// protectedMethods lists the RPCs that need a bearer token and the operation
// whose role policy applies.
var protectedMethods = map[string]service.Operation{
	types.AuthService_Logout_FullMethodName:         service.OpLogout,
	types.AuthService_ChangePassword_FullMethodName: service.OpChangePassword,
	types.AuthService_UpdateRole_FullMethodName:     service.OpUpdateRole,
}

type accessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*service.Claims, error)
}

func AuthUnaryInterceptor(verifier accessTokenVerifier) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		op, ok := protectedMethods[info.FullMethod]
		if !ok {
			return handler(ctx, req)
		}

		principal, err := authorize(ctx, verifier, op)
		if err != nil {
			logrus.WithField("method", info.FullMethod).WithField("reason", err.Error()).Warn("Unauthorized call (grpc)")
			return nil, status.Error(codeForKind(service.KindOf(err)), service.PublicMessage(err))
		}

		return handler(context.WithValue(ctx, principalKey{}, principal), req)
	}
}

func authorize(ctx context.Context, verifier accessTokenVerifier, op service.Operation) (Principal, error) {
	tokenString, err := service.ParseBearer(incomingAuthorization(ctx))
	if err != nil {
		return Principal{}, err
	}

	claims, err := verifier.VerifyAccessToken(tokenString)
	if err != nil {
		return Principal{}, service.ErrInvalidToken
	}

	if err = service.AuthorizeRole(claims.Role, service.RequiredRoles(op)); err != nil {
		return Principal{}, err
	}

	return Principal{
		ID:    claims.ID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

func incomingAuthorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
