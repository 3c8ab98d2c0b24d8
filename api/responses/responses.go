package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
	"github.com/angelmondragon/orderbot/pkg/types"
)

// requestIDHeader is set on the response by the RequestID middleware before
// any handler runs; envelopes echo it so clients can quote it.
const requestIDHeader = "X-Request-Id"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data, RequestID: w.Header().Get(requestIDHeader)})
}

// WriteError renders err as an ErrorEnvelope. Expected codes are logged at
// warn level, everything else at error level with the unwrapped chain.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.Expected {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
		RequestID: w.Header().Get(requestIDHeader),
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		if meta.Expected {
			ctx = logg.WithFields(ctx, map[string]any{
				"error":      err.Error(),
				"error_code": string(typed.Code()),
			})
			logg.Warn(ctx, "request.rejected")
		} else {
			dump := pkgerrors.Dump(err)
			ctx = logg.WithFields(ctx, map[string]any{
				"error":         dump.TopMessage,
				"error_code":    dump.Code,
				"error_chain":   dump.Chain,
				"pg_code":       dump.PGCode,
				"pg_detail":     dump.PGDetail,
				"pg_constraint": dump.PGConstraint,
			})
			logg.Error(ctx, "request.error", err)
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
