// Package prometheusMW is a go-json-rest middleware that counts requests
// by status class. Counters are registered in a sync.Once held by each
// middleware value, so MiddlewareFunc can be called more than once on the
// same value. A second value with the same ServiceName registers its
// counters again, which prometheus rejects with a duplicate-registration
// panic.
package prometheusMW

import (
	"fmt"
	"sync"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware counts requests handled by a go-json-rest API,
// broken down by HTTP status class.
type PrometheusMiddleware struct {
	ServiceName string

	once     sync.Once
	requests prometheus.Counter
	status4  prometheus.Counter
	status5  prometheus.Counter
}

func (mw *PrometheusMiddleware) register() {
	mw.requests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_api_req_total", mw.ServiceName),
		Help: "Total api requests",
	})
	mw.status4 = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_api_req_4xx", mw.ServiceName),
		Help: "Total api status 4xx responses",
	})
	mw.status5 = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fmt.Sprintf("%s_api_req_5xx", mw.ServiceName),
		Help: "Total api status 5xx responses",
	})
	prometheus.MustRegister(mw.requests, mw.status4, mw.status5)
}

// MiddlewareFunc makes PrometheusMiddleware implement rest.Middleware.
func (mw *PrometheusMiddleware) MiddlewareFunc(handler rest.HandlerFunc) rest.HandlerFunc {
	mw.once.Do(mw.register)

	return func(writer rest.ResponseWriter, request *rest.Request) {
		handler(writer, request)
		mw.requests.Add(1)
		if request.Env["STATUS_CODE"] != nil {
			switch s := request.Env["STATUS_CODE"].(int); {
			case s >= 500:
				mw.status5.Inc()
			case s >= 400:
				mw.status4.Inc()
			}
		}
	}
}
