package middleware

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/internal/metrics"
	"github.com/mmynk/payroll/pkg/api"
)

// LoggingInterceptor logs every RPC with its actor and outcome. Successful
// calls to the quiet procedures log at debug.
func LoggingInterceptor(quiet ...string) connect.UnaryInterceptorFunc {
	return newLoggingInterceptor(slog.Default, quiet)
}

func newLoggingInterceptor(logger func() *slog.Logger, quiet []string) connect.UnaryInterceptorFunc {
	quietSet := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		quietSet[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			attrs := []any{
				"procedure", procedure,
				"protocol", req.Peer().Protocol,
				"actor_id", GetActorID(ctx), // empty on anonymous reads
				"duration_ms", time.Since(start).Milliseconds(),
			}

			log := logger()
			rejected := rejectedFields(resp)
			switch {
			case err != nil:
				code := connect.CodeOf(err)
				var connectErr *connect.Error
				msg := err.Error()
				if errors.As(err, &connectErr) {
					msg = connectErr.Message()
				}
				log.Log(ctx, errorLevel(code), "RPC failed", append(attrs, "code", code.String(), "error", msg)...)
			case len(rejected) > 0:
				log.Log(ctx, slog.LevelWarn, "RPC rejected", append(attrs, "fields", rejected)...)
			case quietSet[procedure]:
				log.Log(ctx, slog.LevelDebug, "RPC ok", attrs...)
			default:
				log.Log(ctx, slog.LevelInfo, "RPC ok", attrs...)
			}

			return resp, err
		}
	}
}

// errorLevel logs caller mistakes as warnings and server faults as errors.
func errorLevel(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeAlreadyExists,
		connect.CodeFailedPrecondition, connect.CodePermissionDenied, connect.CodeUnauthenticated,
		connect.CodeCanceled:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// rejectedFields returns the field names of validation errors carried in a
// response payload. Such calls succeed at the RPC level.
func rejectedFields(resp connect.AnyResponse) []string {
	if resp == nil {
		return nil
	}
	v := reflect.Indirect(reflect.ValueOf(resp.Any()))
	if v.Kind() != reflect.Struct {
		return nil
	}
	f := v.FieldByName("Errors")
	if !f.IsValid() || !f.CanInterface() {
		return nil
	}
	errs, _ := f.Interface().([]api.FieldError)
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	return fields
}

// MetricsInterceptor records a request count and latency per procedure.
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.ObserveRPC(req.Spec().Procedure, code, start)

			return resp, err
		}
	}
}
