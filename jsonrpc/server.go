package jsonrpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
)

type (
	StartTimeCtxKey string

	// Server is a gorilla/rpc JSON-RPC 2.0 server whose services are reached
	// through wire method names such as `message/send`. Services must be
	// registered before the server handles requests.
	Server struct {
		*rpc.Server

		methods map[string]string
	}

	methodCodec struct {
		codec   rpc.Codec
		methods map[string]string
	}

	methodCodecRequest struct {
		rpc.CodecRequest

		methods map[string]string
	}
)

var (
	startTimeCtxKey StartTimeCtxKey = "jsonrpc.startTime"
)

func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = mylog.Discard()
	}

	s := &Server{
		Server:  rpc.NewServer(),
		methods: make(map[string]string),
	}
	s.RegisterBeforeFunc(func(i *rpc.RequestInfo) {
		if _, ok := i.Request.Context().Value(startTimeCtxKey).(time.Time); ok {
			return
		}
		ctx := context.WithValue(i.Request.Context(), startTimeCtxKey, time.Now())
		i.Request = i.Request.WithContext(ctx)
	})
	s.RegisterAfterFunc(func(i *rpc.RequestInfo) {
		logger := logger.WithGroup("jsonrpc")
		if startTime, ok := i.Request.Context().Value(startTimeCtxKey).(time.Time); ok {
			logger = logger.With(slog.Duration("duration", time.Since(startTime)))
		}
		if i.Error != nil {
			logger = logger.With(mylog.Err(i.Error))
		}
		logger.Info("[JSON-RPC] call",
			slog.Int("statusCode", i.StatusCode),
			slog.String("method", i.Method),
			slog.Bool("error", i.Error != nil),
		)
	})
	s.RegisterCodec(&methodCodec{
		codec:   json2.NewCustomCodecWithErrorMapper(rpc.DefaultEncoderSelector, errorMapper(logger)),
		methods: s.methods,
	}, "application/json")

	return s
}

// Register adds receiver as service name. methods maps each wire method
// name to the Go method of receiver that serves it.
func (s *Server) Register(receiver any, name string, methods map[string]string) error {
	if err := s.RegisterService(receiver, name); err != nil {
		return errors.Wrapf(err, "failed to register service %s", name)
	}
	for wire, method := range methods {
		s.methods[wire] = name + "." + method
	}
	return nil
}

func (c *methodCodec) NewRequest(r *http.Request) rpc.CodecRequest {
	return &methodCodecRequest{
		CodecRequest: c.codec.NewRequest(r),
		methods:      c.methods,
	}
}

func (r *methodCodecRequest) Method() (string, error) {
	method, err := r.CodecRequest.Method()
	if err != nil {
		return "", err
	}
	if name, ok := r.methods[method]; ok {
		return name, nil
	}
	return "", NewError(CodeMethodNotFound, "method not found: "+method)
}

func errorMapper(logger *slog.Logger) func(error) error {
	return func(err error) error {
		if err == nil {
			return nil
		}

		var e *json2.Error
		if errors.As(err, &e) {
			return e
		}

		logger.Error("[JSON-RPC] error", mylog.Err(err))
		e = &json2.Error{Message: err.Error()}
		switch {
		case errors.Is(err, errors.ErrInvalidParams):
			e.Code = json2.E_BAD_PARAMS
		case errors.Is(err, errors.ErrInvalidRequest):
			e.Code = json2.E_INVALID_REQ
		case errors.Is(err, errors.ErrNotFound):
			e.Code = json2.ErrorCode(CodeTaskNotFound)
		default:
			e.Code = json2.E_INTERNAL
		}
		return e
	}
}
