// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/ctxutil"
	"github.com/taibuivan/storybook/internal/platform/respond"
	"github.com/taibuivan/storybook/internal/platform/sec"
)

// bearerChallenge is sent with every 401 as the WWW-Authenticate value.
const bearerChallenge = `Bearer realm="storybook"`

// TokenVerifier verifies an editor bearer token.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate resolves the editor identity from the Authorization header.
//
// # Flow
//  1. No header: the request continues as an anonymous reader.
//  2. Anything but "Bearer <token>": 401.
//  3. A token the verifier rejects: 401 with error="invalid_token".
//  4. Otherwise the claims are put in the context and tagged on the server span.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
				unauthorized(writer, request, "", "Invalid authorization format")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				unauthorized(writer, request, "invalid_token", "Invalid or expired token")
				return
			}

			trace.SpanFromContext(request.Context()).SetAttributes(attribute.String("enduser.id", claims.UserID))

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. Register it after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			unauthorized(writer, request, "", "Authentication required")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func unauthorized(writer http.ResponseWriter, request *http.Request, reason, message string) {
	challenge := bearerChallenge
	if reason != "" {
		challenge += `, error="` + reason + `"`
	}
	writer.Header().Set("WWW-Authenticate", challenge)
	respond.Error(writer, request, apperr.Unauthorized(message))
}
