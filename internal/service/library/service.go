package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Astemirdum/library-client/config"
	"github.com/Astemirdum/library-client/internal/errs"
	"github.com/Astemirdum/library-client/internal/model"
	"github.com/Astemirdum/library-client/pkg/circuit_breaker"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tokenPath          = "/api/token/"
	registerPath       = "/api/register/"
	mePath             = "/api/me/"
	booksPath          = "/api/books/"
	myBorrowedPath     = "/api/books/my_borrowed_books/"
	borrowHistoryPath  = "/api/books/borrow_history/"
	searchParam        = "search"
	defaultHTTPTimeout = time.Minute
)

var errServerStatus = errors.New("backend server error")

type Service struct {
	log     *zap.Logger
	client  *http.Client
	baseURL *url.URL
	cb      circuit_breaker.CircuitBreaker
	limiter *rate.Limiter
	tracer  trace.Tracer
}

func NewService(log *zap.Logger, cfg config.Backend, tokens TokenSource) (*Service, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "backend url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("backend url %q must be absolute", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Service{
		log: log.Named("library"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &authTransport{base: http.DefaultTransport, tokens: tokens},
		},
		baseURL: base,
		cb:      circuit_breaker.New(100, time.Second, 0.2, 2),
		limiter: rate.NewLimiter(limit, burst),
		tracer:  otel.Tracer("library-client/backend"),
	}, nil
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

// CatalogURL is the canonical first catalog page, filtered by search when set.
func (s *Service) CatalogURL(search string) string {
	u := s.endpoint(booksPath)
	if search != "" {
		u.RawQuery = url.Values{searchParam: []string{search}}.Encode()
	}
	return u.String()
}

func (s *Service) Token(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	var pair model.TokenPair
	data, err := s.do(anonymous(ctx), "token", http.MethodPost, s.endpoint(tokenPath).String(), creds, false)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := decode(data, &pair); err != nil {
		return model.TokenPair{}, err
	}
	if pair.Access == "" {
		return model.TokenPair{}, errs.Transport(errors.Wrap(errs.ErrUnexpectedBody, "empty access token"))
	}
	return pair, nil
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := s.do(anonymous(ctx), "register", http.MethodPost, s.endpoint(registerPath).String(), req, true)
	return err
}

func (s *Service) Me(ctx context.Context) (model.Profile, error) {
	data, err := s.do(ctx, "me", http.MethodGet, s.endpoint(mePath).String(), nil, false)
	if err != nil {
		return model.Profile{}, err
	}
	var p model.Profile
	if err := decode(data, &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (s *Service) UpdateMe(ctx context.Context, upd model.ProfileUpdate) (model.Profile, error) {
	data, err := s.do(ctx, "update_me", http.MethodPatch, s.endpoint(mePath).String(), upd, true)
	if err != nil {
		return model.Profile{}, err
	}
	var p model.Profile
	if err := decode(data, &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// Books loads a catalog page. A cursor URL is followed verbatim.
func (s *Service) Books(ctx context.Context, q model.CatalogQuery) (model.Page[model.Book], error) {
	target := s.CatalogURL(q.Search)
	if q.URL != "" {
		u, err := s.resolve(q.URL)
		if err != nil {
			return model.Page[model.Book]{}, errs.Transport(err)
		}
		target = u
	}
	data, err := s.do(ctx, "books", http.MethodGet, target, nil, false)
	if err != nil {
		return model.Page[model.Book]{}, err
	}
	return decodePage[model.Book](data)
}

func (s *Service) MyBorrowedBooks(ctx context.Context) ([]model.BorrowRecord, error) {
	data, err := s.do(ctx, "my_borrowed_books", http.MethodGet, s.endpoint(myBorrowedPath).String(), nil, false)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[model.BorrowRecord](data)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *Service) BorrowHistory(ctx context.Context, pageURL string) (model.Page[model.HistoryRecord], error) {
	target := s.endpoint(borrowHistoryPath).String()
	if pageURL != "" {
		u, err := s.resolve(pageURL)
		if err != nil {
			return model.Page[model.HistoryRecord]{}, errs.Transport(err)
		}
		target = u
	}
	data, err := s.do(ctx, "borrow_history", http.MethodGet, target, nil, false)
	if err != nil {
		return model.Page[model.HistoryRecord]{}, err
	}
	return decodePage[model.HistoryRecord](data)
}

func (s *Service) Borrow(ctx context.Context, bookID int) (model.LoanResult, error) {
	return s.loan(ctx, "borrow", fmt.Sprintf("%s%d/borrow/", booksPath, bookID))
}

func (s *Service) ReturnBook(ctx context.Context, bookID int) (model.LoanResult, error) {
	return s.loan(ctx, "return_book", fmt.Sprintf("%s%d/return_book/", booksPath, bookID))
}

func (s *Service) DeleteBook(ctx context.Context, bookID int) error {
	_, err := s.do(ctx, "delete_book", http.MethodDelete, s.endpoint(fmt.Sprintf("%s%d/", booksPath, bookID)).String(), nil, false)
	return err
}

func (s *Service) loan(ctx context.Context, op, path string) (model.LoanResult, error) {
	data, err := s.do(ctx, op, http.MethodPost, s.endpoint(path).String(), nil, false)
	if err != nil {
		return model.LoanResult{}, err
	}
	var res model.LoanResult
	if err := decode(data, &res); err != nil {
		return model.LoanResult{}, err
	}
	if res.UserStatus == "" {
		return model.LoanResult{}, errs.Transport(errors.Wrap(errs.ErrUnexpectedBody, "missing user_status"))
	}
	return res, nil
}

// do performs one backend call and classifies any failure into *errs.APIError.
func (s *Service) do(ctx context.Context, op, method, target string, body any, validation bool) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "library."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
		),
	)
	defer span.End()

	fail := func(err *errs.APIError) ([]byte, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
		s.log.Warn(op, zap.String("url", target), zap.Int("status", err.Status), zap.Error(err))
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fail(errs.Transport(errors.Wrap(err, "rate limit")))
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fail(errs.Transport(errors.Wrap(err, "encode request")))
		}
	}

	var (
		data   []byte
		status int
	)
	err := s.cb.Call(func() error {
		var reqBody io.Reader = http.NoBody
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if status >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	})
	span.SetAttributes(attribute.Int("http.status_code", status))
	switch {
	case errors.Is(err, errServerStatus):
		return fail(errs.FromStatus(status, data, messageOf(data), validation))
	case err != nil:
		return fail(errs.Transport(err))
	case status >= http.StatusBadRequest:
		return fail(errs.FromStatus(status, data, messageOf(data), validation))
	}
	s.log.Debug(op, zap.String("url", target), zap.Int("status", status))
	return data, nil
}

func (s *Service) endpoint(path string) *url.URL {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return &u
}

// resolve accepts absolute cursors and ones relative to the backend.
func (s *Service) resolve(cursor string) (string, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return "", errors.Wrap(err, "pagination cursor")
	}
	return s.baseURL.ResolveReference(u).String(), nil
}

func messageOf(data []byte) string {
	var er errs.ErrorResponse
	if err := json.Unmarshal(data, &er); err != nil {
		return ""
	}
	return er.Text()
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Transport(errors.Wrap(err, "decode response"))
	}
	return nil
}

func decodePage[T any](data []byte) (model.Page[T], error) {
	page, err := model.DecodePage[T](data)
	if err != nil {
		return model.Page[T]{}, errs.Transport(err)
	}
	return page, nil
}
