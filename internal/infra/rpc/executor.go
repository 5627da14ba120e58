package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 64 << 10

// Execute performs op once and normalizes the outcome:
//
//   - 2xx with a JSON body decodes into T
//   - 2xx without a body (204, or zero bytes) is a no-content success
//   - 2xx whose body cannot be read or decoded is a DecodeError
//   - any other status is an HTTPError carrying the best-effort raw body
//   - a transport failure (or a panic inside op) is a NetworkError
//
// Execute never returns a bare error and always closes the response body.
func Execute[T any](ctx context.Context, op provider.Operation) domain.Result[T] {
	var v T
	noContent, err := execute(ctx, op, func(body []byte) error {
		return json.Unmarshal(body, &v)
	})
	switch {
	case err != nil:
		return domain.Fail[T](err)
	case noContent:
		return domain.NoContent[T]()
	default:
		return domain.Ok(v)
	}
}

// ExecuteAck is Execute for calls whose body, if any, is irrelevant:
// every success becomes true and the body is not decoded.
func ExecuteAck(ctx context.Context, op provider.Operation) domain.Result[bool] {
	_, err := execute(ctx, op, nil)
	if err != nil {
		return domain.Fail[bool](err)
	}
	return domain.Ok(true)
}

func execute(ctx context.Context, op provider.Operation, decode func([]byte) error) (noContent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			noContent, err = false, &domain.NetworkError{Cause: fmt.Errorf("panic in remote operation: %v", r)}
		}
	}()

	resp, err := op(ctx)
	if err != nil {
		return false, asClassified(err)
	}
	if resp == nil {
		return false, &domain.NetworkError{Cause: errors.New("no response")}
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, httpError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || resp.Body == nil {
		return true, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if decode == nil {
			return false, nil
		}
		return false, &domain.DecodeError{Cause: fmt.Errorf("read body: %w", err)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true, nil
	}
	if decode == nil {
		return false, nil
	}
	if err := decode(body); err != nil {
		return false, &domain.DecodeError{Cause: err}
	}
	return false, nil
}

// asClassified keeps errors that are already classified and wraps the rest
// as NetworkError: op failed before any response reached us.
func asClassified(err error) error {
	var (
		ne *domain.NetworkError
		he *domain.HTTPError
		de *domain.DecodeError
	)
	if errors.As(err, &ne) || errors.As(err, &he) || errors.As(err, &de) {
		return err
	}
	return &domain.NetworkError{Cause: err}
}

// httpError reads the error body best-effort; a read failure leaves RawBody
// empty and never changes the error kind.
func httpError(resp *provider.Response) *domain.HTTPError {
	he := &domain.HTTPError{Code: resp.StatusCode}

	if resp.Body != nil {
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil {
			he.RawBody = raw
		}
	}

	he.Message = errorMessage(he.RawBody)
	if he.Message == "" {
		he.Message = http.StatusText(resp.StatusCode)
	}
	return he
}

func errorMessage(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	for _, path := range []string{"message", "mensaje", "error.message", "error", "detail"} {
		if v := gjson.GetBytes(raw, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
