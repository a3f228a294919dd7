package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"clinic/pkg/auth"
	apperrors "clinic/pkg/errors"
	httputil "clinic/pkg/http"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const StaffKeyHeader = "X-Staff-Key"

// RequireDoctor admits requests carrying a valid doctor bearer token and
// puts the doctor on the request context.
func RequireDoctor(tokens *auth.TokenManager, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, apperrors.Unauthorized("missing bearer token"))
				return
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				log.Warn("Rejected doctor token",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteError(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			actor := claims.Actor()
			if !actor.IsDoctor() {
				httputil.WriteError(w, apperrors.Forbidden("doctor access required"))
				return
			}

			next(w, r.WithContext(auth.WithActor(r.Context(), actor)), ps)
		}
	}
}

// StaffKey admits requests presenting the configured staff key. With no key
// configured every caller is treated as staff.
func StaffKey(key string, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	if key == "" {
		log.Warn("STAFF_API_KEY is not set, staff endpoints are open")
	}

	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if key != "" {
				presented := r.Header.Get(StaffKeyHeader)
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
					log.Warn("Rejected staff request",
						"request_id", RequestID(r.Context()),
						"path", r.URL.Path,
					)
					httputil.WriteError(w, apperrors.Unauthorized("invalid staff key"))
					return
				}
			}

			next(w, r.WithContext(auth.WithActor(r.Context(), model.StaffActor)), ps)
		}
	}
}

// OptionalStaffKey marks the caller as staff when the configured key is
// presented and leaves anonymous callers untouched. A wrong key is rejected.
// With no key configured nobody is elevated.
func OptionalStaffKey(key string, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			presented := r.Header.Get(StaffKeyHeader)
			if presented == "" || key == "" {
				next(w, r, ps)
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				log.Warn("Rejected staff request",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, apperrors.Unauthorized("invalid staff key"))
				return
			}
			next(w, r.WithContext(auth.WithActor(r.Context(), model.StaffActor)), ps)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
