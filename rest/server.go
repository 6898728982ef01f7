package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/pretend-bot/pretend/cache"
)

// NewContainer registers all services behind the CORS and logging filters
func NewContainer(allowedOrigins []string) *restful.Container {
	wsContainer := restful.NewContainer()

	for _, service := range NewRestServices() {
		wsContainer.Add(service)
	}
	wsContainer.Filter(corsFilter(allowedOrigins))
	wsContainer.Filter(logFilter)
	wsContainer.Filter(wsContainer.OPTIONSFilter)

	return wsContainer
}

func corsFilter(allowedOrigins []string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if origin := req.Request.Header.Get("Origin"); origin != "" {
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == origin || allowedOrigin == "*" {
					resp.AddHeader("Access-Control-Allow-Origin", origin)
					resp.AddHeader("Access-Control-Allow-Methods", "GET, OPTIONS")
					resp.AddHeader("Access-Control-Max-Age", "1000")
					resp.AddHeader("Access-Control-Allow-Headers", "origin, content-type, accept, Authorization")
					break
				}
			}
		}
		chain.ProcessFilter(req, resp)
	}
}

func logFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	now := time.Now()
	chain.ProcessFilter(req, resp)
	cache.GetLogger().WithField("module", "rest").Debug(fmt.Sprintf("received api request: %s %s (%d, took %v)",
		req.Request.Method, req.Request.URL, resp.StatusCode(), time.Since(now)))
}

// Start serves the api on $address until the returned server is shut down
func Start(address string, allowedOrigins []string) *http.Server {
	server := &http.Server{
		Addr:              address,
		Handler:           NewContainer(allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			cache.GetLogger().WithField("module", "rest").Error("REST API stopped: " + err.Error())
		}
	}()
	cache.GetLogger().WithField("module", "rest").Info("REST API listening on " + address)

	return server
}
