// Package rpc is the outbound call layer of the storefront client.
//
// Every remote call goes through Execute, which turns a transport response
// into a domain.Result with a closed error taxonomy (NetworkError, HTTPError,
// DecodeError). Client binds a backend service to the router so call sites
// only describe the request:
//
//	router := routing.NewRouter()
//	router.AddProvider(domain.ServiceSales, provider.NewHTTPProvider("sales", salesURL, 15*time.Second))
//
//	sales := rpc.NewClient(domain.ServiceSales, router)
//	res := rpc.Call[[]domain.CartItem](ctx, sales, provider.Get("/carrito/42"))
//
// # Package Structure
//
//   - provider/ - HTTP transport, throttle monitoring
//   - routing/  - provider selection, circuit breaker, TryChain, Retry
package rpc
