package rpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

type brokenBody struct{ closed bool }

func (b *brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset mid-body") }
func (b *brokenBody) Close() error {
	b.closed = true
	return nil
}

func respond(status int, body io.ReadCloser) provider.Operation {
	return func(ctx context.Context) (*provider.Response, error) {
		return &provider.Response{StatusCode: status, Status: http.StatusText(status), Body: body}, nil
	}
}

func text(s string) *trackedBody {
	return &trackedBody{Reader: strings.NewReader(s)}
}

func TestExecute_DecodesBody(t *testing.T) {
	body := text(`[{"id":1,"modeloId":5,"talla":"40","cantidad":2}]`)

	res := Execute[[]domain.CartItem](context.Background(), respond(200, body))

	require.True(t, res.IsOk())
	assert.False(t, res.IsNoContent())
	assert.Equal(t, []domain.CartItem{{ID: 1, ModelID: 5, Size: "40", Quantity: 2}}, res.Value())
	assert.True(t, body.closed)
}

func TestExecute_NoContent(t *testing.T) {
	res := Execute[domain.CartItem](context.Background(), respond(http.StatusNoContent, text("")))
	require.True(t, res.IsOk())
	assert.True(t, res.IsNoContent())

	empty := Execute[domain.CartItem](context.Background(), respond(200, text("  \n")))
	assert.True(t, empty.IsNoContent())

	ack := ExecuteAck(context.Background(), respond(http.StatusNoContent, nil))
	require.True(t, ack.IsOk())
	assert.True(t, ack.Value())
}

func TestExecuteAck_IgnoresBody(t *testing.T) {
	ack := ExecuteAck(context.Background(), respond(200, text("Eliminado correctamente")))

	require.True(t, ack.IsOk())
	assert.True(t, ack.Value())
}

func TestExecute_DecodeError(t *testing.T) {
	res := Execute[[]domain.Brand](context.Background(), respond(200, text(`<html>maintenance</html>`)))

	require.False(t, res.IsOk())
	assert.True(t, domain.IsDecode(res.Err()))
}

func TestExecute_BodyReadFailureIsDecodeError(t *testing.T) {
	res := Execute[[]domain.Brand](context.Background(), respond(200, &brokenBody{}))

	require.False(t, res.IsOk())
	assert.True(t, domain.IsDecode(res.Err()))
}

func TestExecute_HTTPErrorWithMessage(t *testing.T) {
	body := text(`{"message":"stock insuficiente"}`)

	res := Execute[domain.CartItem](context.Background(), respond(409, body))

	var he *domain.HTTPError
	require.ErrorAs(t, res.Err(), &he)
	assert.Equal(t, 409, he.Code)
	assert.Equal(t, "stock insuficiente", he.Message)
	assert.JSONEq(t, `{"message":"stock insuficiente"}`, string(he.RawBody))
	assert.True(t, body.closed)
}

func TestExecute_HTTPErrorBodyReadIsBestEffort(t *testing.T) {
	body := &brokenBody{}

	res := Execute[domain.CartItem](context.Background(), respond(404, body))

	var he *domain.HTTPError
	require.ErrorAs(t, res.Err(), &he, "a failed body read must not change the error kind")
	assert.Equal(t, 404, he.Code)
	assert.Equal(t, "Not Found", he.Message)
	assert.Empty(t, he.RawBody)
	assert.True(t, body.closed)
}

func TestExecute_TransportFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	op := func(ctx context.Context) (*provider.Response, error) { return nil, cause }

	res := Execute[[]domain.CartItem](context.Background(), op)

	require.False(t, res.IsOk())
	assert.True(t, domain.IsNetwork(res.Err()))
	assert.ErrorIs(t, res.Err(), cause)
}

func TestExecute_KeepsClassifiedErrors(t *testing.T) {
	he := &domain.HTTPError{Code: 401}
	op := func(ctx context.Context) (*provider.Response, error) { return nil, he }

	res := Execute[domain.Profile](context.Background(), op)

	assert.Same(t, he, res.Err())
}

func TestExecute_RecoversPanic(t *testing.T) {
	op := func(ctx context.Context) (*provider.Response, error) { panic("nil map") }

	res := Execute[domain.Profile](context.Background(), op)
	assert.True(t, domain.IsNetwork(res.Err()))

	ack := ExecuteAck(context.Background(), op)
	assert.True(t, domain.IsNetwork(ack.Err()))
}
